// Package fesl implements a client for EA's FESL account/stats/
// leaderboard protocol used by Bad Company, Bad Company 2 and
// Battlefield 1943.
package fesl

import (
	"time"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/internal/gwlog"
	"github.com/cetteup/bfbc2-statsd-go/packet"
	"github.com/cetteup/bfbc2-statsd-go/payload"
	"github.com/cetteup/bfbc2-statsd-go/transport"
)

// Step identifies a FESL session milestone whose response packet is
// cached so a repeated call returns it without I/O.
type Step int

const (
	StepHello Step = iota
	StepLogin
	// StepLoginPersona is only ever populated by RomeClient: Project Rome
	// requires a persona login in addition to the account-level login.
	StepLoginPersona
)

// Client is a single FESL session: one connection (TLS when created by
// New, plaintext when created for RomeClient), a monotonic transaction-id
// counter, and a completed-steps cache.
type Client struct {
	conn           *transport.Conn
	platform       bfconst.Platform
	clientString   string
	username       string
	password       string
	trackSteps     bool
	tid            int
	completedSteps map[Step]*packet.Packet
	log            *gwlog.Logger
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger sets the logger the client (and its underlying transport)
// writes to. Defaults to a discard logger.
func WithLogger(l *gwlog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithoutStepTracking disables the completed-steps cache, forcing every
// call to perform its I/O even if the same step already ran.
func WithoutStepTracking() Option {
	return func(c *Client) { c.trackSteps = false }
}

// New creates a Client for the given backend. The minimum usable timeout
// is 2 seconds: a shorter one leads to reads timing out mid-response and
// subsequent reads picking up stale bytes from the previous request.
func New(backend bfconst.Backend, username, password string, timeout time.Duration, opts ...Option) *Client {
	return newClient(backend, username, password, timeout, true, opts...)
}

// newClient is the shared constructor behind New and NewRomeClient; useTLS
// is false only for Rome, which does not support the legacy-cipher TLS
// dial path the other backends require.
func newClient(backend bfconst.Backend, username, password string, timeout time.Duration, useTLS bool, opts ...Option) *Client {
	if timeout < 2*time.Second {
		timeout = 2 * time.Second
	}
	c := &Client{
		clientString:   backend.ClientString,
		platform:       backend.Platform,
		username:       username,
		password:       password,
		trackSteps:     true,
		completedSteps: map[Step]*packet.Packet{},
		log:            gwlog.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.conn = transport.New(backend.Host, backend.Port, packet.FESL, useTLS, transport.WithTimeout(timeout), transport.WithLogger(c.log))
	return c
}

func (c *Client) nextTID() int {
	c.tid++
	return c.tid
}

// wrappedRead reads a single packet, automatically responding to and
// discarding server-initiated MemCheck/Ping prompts, and skipping any
// packet whose transaction id is behind the one we're waiting for.
func (c *Client) wrappedRead(tid int) (*packet.Packet, error) {
	p, err := c.conn.Read()
	if err != nil {
		return nil, err
	}

	if auto, txn, handler := c.isAutoRespondPacket(p); auto {
		c.log.Debug("auto-responding to server prompt", gwlog.KV("txn", txn))
		if err := handler(); err != nil {
			return nil, err
		}
		return c.wrappedRead(tid)
	}
	if p.GetTID() < tid {
		return c.wrappedRead(tid)
	}
	return p, nil
}

func (c *Client) isAutoRespondPacket(p *packet.Packet) (bool, string, func() error) {
	pl := payload.Parse(p.GetData())
	txn, _ := pl.GetStr("TXN", "")
	switch txn {
	case "MemCheck":
		return true, txn, c.MemCheck
	case "Ping":
		return true, txn, c.Ping
	default:
		return false, "", nil
	}
}

// Hello performs the initial handshake, which also reads and replies to
// the memcheck FESL immediately follows it with.
func (c *Client) Hello() (*packet.Packet, error) {
	if c.trackSteps {
		if cached, ok := c.completedSteps[StepHello]; ok {
			return cached, nil
		}
	}

	tid := c.nextTID()
	c.log.Debug("transaction started", gwlog.KV("txn", "Hello"), gwlog.KV("tid", tid))
	req := buildHelloPacket(tid, c.clientString)
	if err := c.conn.Write(req); err != nil {
		return nil, err
	}

	resp, err := c.conn.Read()
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "Hello"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	if _, err := c.conn.Read(); err != nil { // initial memcheck prompt
		c.log.Warn("transaction failed", gwlog.KV("txn", "Hello"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}

	c.completedSteps[StepHello] = resp
	if err := c.MemCheck(); err != nil {
		return nil, err
	}
	c.log.Debug("transaction finished", gwlog.KV("txn", "Hello"), gwlog.KV("tid", tid))
	return resp, nil
}

// MemCheck replies to a server memcheck prompt.
func (c *Client) MemCheck() error {
	return c.conn.Write(buildMemCheckPacket())
}

// Ping replies to a server ping prompt.
func (c *Client) Ping() error {
	return c.conn.Write(buildPingPacket())
}

// Login authenticates with the configured username/password, performing
// Hello first if it hasn't run yet.
func (c *Client) Login() (*packet.Packet, error) {
	if c.trackSteps {
		if cached, ok := c.completedSteps[StepLogin]; ok {
			return cached, nil
		}
		if _, ok := c.completedSteps[StepHello]; !ok {
			if _, err := c.Hello(); err != nil {
				return nil, err
			}
		}
	}

	tid := c.nextTID()
	c.log.Debug("transaction started", gwlog.KV("txn", "Login"), gwlog.KV("tid", tid))
	req := buildLoginPacket(tid, c.username, c.password)
	if err := c.conn.Write(req); err != nil {
		return nil, err
	}
	resp, err := c.wrappedRead(tid)
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "Login"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	if err := validateLoginResponse(resp); err != nil {
		c.log.Warn("login rejected", gwlog.KV("txn", "Login"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}

	c.completedSteps[StepLogin] = resp
	c.log.Info("transaction finished", gwlog.KV("txn", "Login"), gwlog.KV("tid", tid))
	return resp, nil
}

func validateLoginResponse(resp *packet.Packet) error {
	pl := payload.Parse(resp.GetData())
	if _, ok := pl.Get("lkey"); ok {
		return nil
	}
	message, _ := pl.GetStr("localizedMessage", "")
	code, _ := pl.GetInt("errorCode", 0)
	return bferrors.NewCoded(bferrors.Auth, code, "FESL login rejected: "+message)
}

// Logout sends Goodbye and reads the reply if a login is on record; it is
// a no-op otherwise, and always a no-op when step tracking is disabled.
func (c *Client) Logout() (*packet.Packet, error) {
	if !c.trackSteps {
		return nil, nil
	}
	if _, ok := c.completedSteps[StepLogin]; !ok {
		return nil, nil
	}

	tid := c.nextTID()
	c.log.Debug("transaction started", gwlog.KV("txn", "Logout"), gwlog.KV("tid", tid))
	req := buildLogoutPacket(tid)
	if err := c.conn.Write(req); err != nil {
		return nil, err
	}
	c.completedSteps = map[Step]*packet.Packet{}
	resp, err := c.wrappedRead(tid)
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "Logout"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	c.log.Debug("transaction finished", gwlog.KV("txn", "Logout"), gwlog.KV("tid", tid))
	return resp, nil
}

// Close performs a best-effort logout (swallowing Connection/Timeout
// errors, since the server may already have dropped the connection) and
// closes the underlying transport.
func (c *Client) Close() error {
	if _, err := c.Logout(); err != nil {
		if !bferrors.Is(err, bferrors.Connection) && !bferrors.Is(err, bferrors.Timeout) {
			c.log.Warn("unexpected error during best-effort logout", gwlog.KVErr(err))
		}
	}
	return c.conn.Close()
}

// GetTheaterDetails returns the Theater host and port advertised in the
// Hello response. The field is named theaterIp but actually carries a
// hostname.
func (c *Client) GetTheaterDetails() (string, int, error) {
	if c.trackSteps {
		if _, ok := c.completedSteps[StepHello]; !ok {
			if _, err := c.Hello(); err != nil {
				return "", 0, err
			}
		}
	}
	pl := payload.Parse(c.completedSteps[StepHello].GetData())
	host, err := pl.GetStr("theaterIp", "")
	if err != nil {
		return "", 0, err
	}
	port, err := pl.GetInt("theaterPort", 0)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// GetLKey returns the login key Theater authentication needs, performing
// Login first if it hasn't run yet.
func (c *Client) GetLKey() (string, error) {
	if c.trackSteps {
		if _, ok := c.completedSteps[StepLogin]; !ok {
			if _, err := c.Login(); err != nil {
				return "", err
			}
		}
	}
	pl := payload.Parse(c.completedSteps[StepLogin].GetData())
	return pl.GetStr("lkey", "")
}

// LookupUserIdentifiers resolves a batch of usernames or user ids to
// account records within namespace.
func (c *Client) LookupUserIdentifiers(identifiers []string, namespace bfconst.Namespace, lookupType bfconst.LookupType) ([]map[string]payload.ParsedValue, error) {
	if err := c.ensureLoggedIn(); err != nil {
		return nil, err
	}

	txn := "NuLookupUserInfo"
	if namespace.IsLegacy() {
		txn = "LookupUserInfo"
	}
	tid := c.nextTID()
	req := buildUserLookupPacket(tid, identifiers, namespace, lookupType)
	c.log.Debug("transaction started", gwlog.KV("txn", txn), gwlog.KV("tid", tid))
	if err := c.conn.Write(req); err != nil {
		return nil, err
	}

	pl, err := c.getResponse(tid, txn)
	if err != nil {
		return nil, err
	}
	list, err := pl.GetList("userInfo", parseMapUserLookup, nil)
	if err != nil {
		return nil, err
	}
	return toDictList(list), nil
}

// LookupUserIdentifier resolves a single username or user id, returning
// bferrors.NewNotFound(bferrors.Player, ...) if nothing matched.
func (c *Client) LookupUserIdentifier(identifier string, namespace bfconst.Namespace, lookupType bfconst.LookupType) (map[string]payload.ParsedValue, error) {
	results, err := c.LookupUserIdentifiers([]string{identifier}, namespace, lookupType)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, bferrors.NewNotFound(bferrors.Player, "user lookup did not return any results")
	}
	return results[0], nil
}

// SearchName searches for screen names matching a (partial) query within
// namespace.
func (c *Client) SearchName(screenName string, namespace bfconst.Namespace) (string, []map[string]payload.ParsedValue, error) {
	if err := c.ensureLoggedIn(); err != nil {
		return "", nil, err
	}

	txn := "NuSearchOwners"
	if namespace.IsLegacy() {
		txn = "SearchOwners"
	}
	tid := c.nextTID()
	req := buildSearchPacket(tid, screenName, namespace)
	c.log.Debug("transaction started", gwlog.KV("txn", txn), gwlog.KV("tid", tid))
	if err := c.conn.Write(req); err != nil {
		return "", nil, err
	}

	pl, err := c.getResponse(tid, txn)
	if err != nil {
		return "", nil, err
	}
	ns, err := pl.GetStr("nameSpaceId", "")
	if err != nil {
		return "", nil, err
	}
	list, err := pl.GetList("users", parseMapUserLookup, nil)
	if err != nil {
		return "", nil, err
	}
	return ns, toDictList(list), nil
}

// GetStats retrieves the given stat keys for userid. If keys is empty,
// bfconst.StatsKeys is used.
func (c *Client) GetStats(userid int, keys []string) (map[string]payload.ParsedValue, error) {
	if err := c.ensureLoggedIn(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		keys = bfconst.StatsKeys
	}

	tid := c.nextTID()
	c.log.Debug("transaction started", gwlog.KV("txn", "GetStats"), gwlog.KV("tid", tid))
	for _, chunk := range buildStatsQueryPackets(tid, userid, keys) {
		if err := c.conn.Write(chunk); err != nil {
			return nil, err
		}
	}

	pl, err := c.getResponse(tid, "GetStats")
	if err != nil {
		return nil, err
	}
	list, err := pl.GetList("stats", parseMapStats, nil)
	if err != nil {
		return nil, err
	}
	return dictListToMap(toDictList(list)), nil
}

// GetLeaderboard retrieves the top entries, ranked by sortBy, between
// minRank and maxRank inclusive.
func (c *Client) GetLeaderboard(minRank, maxRank int, sortBy string, keys []string) ([]map[string]payload.ParsedValue, error) {
	if err := c.ensureLoggedIn(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		keys = bfconst.DefaultLeaderboardKeys
	}

	tid := c.nextTID()
	req := buildLeaderboardQueryPacket(tid, minRank, maxRank, sortBy, keys)
	c.log.Debug("transaction started", gwlog.KV("txn", "GetTopNAndStats"), gwlog.KV("tid", tid))
	if err := c.conn.Write(req); err != nil {
		return nil, err
	}

	pl, err := c.getResponse(tid, "GetTopNAndStats")
	if err != nil {
		return nil, err
	}
	list, err := pl.GetList("stats", parseMapStats, nil)
	if err != nil {
		return nil, err
	}

	entries := toDictList(list)
	out := make([]map[string]payload.ParsedValue, len(entries))
	for i, entry := range entries {
		row := map[string]payload.ParsedValue{}
		for k, v := range entry {
			if sub, ok := v.([]payload.ParsedValue); ok {
				row[k] = dictListToMap(toDictList(sub))
			} else {
				row[k] = v
			}
		}
		out[i] = row
	}
	return out, nil
}

// GetDogtags retrieves the decoded dogtag record for userid.
func (c *Client) GetDogtags(userid int) ([]DogtagResult, error) {
	if err := c.ensureLoggedIn(); err != nil {
		return nil, err
	}

	tid := c.nextTID()
	req := buildDogtagQueryPacket(tid, userid)
	c.log.Debug("transaction started", gwlog.KV("txn", "GetRecordAsMap"), gwlog.KV("tid", tid))
	if err := c.conn.Write(req); err != nil {
		return nil, err
	}

	pl, err := c.getResponse(tid, "GetRecordAsMap")
	if err != nil {
		return nil, err
	}
	values, err := pl.GetMap("values", nil, nil)
	if err != nil {
		return nil, err
	}
	return formatDogtagsResponse(values, c.platform)
}

func (c *Client) ensureLoggedIn() error {
	if !c.trackSteps {
		return nil
	}
	if _, ok := c.completedSteps[StepLogin]; ok {
		return nil
	}
	_, err := c.Login()
	return err
}

// getResponse reassembles a (possibly chunked) response into one Payload.
func (c *Client) getResponse(tid int, txn string) (*payload.Payload, error) {
	var data []byte
	for {
		p, err := c.wrappedRead(tid)
		if err != nil {
			c.log.Warn("transaction failed", gwlog.KV("txn", txn), gwlog.KV("tid", tid), gwlog.KVErr(err))
			return nil, err
		}
		chunk, last, err := processResponsePacket(p)
		if err != nil {
			c.log.Warn("transaction failed", gwlog.KV("txn", txn), gwlog.KV("tid", tid), gwlog.KVErr(err))
			return nil, err
		}
		data = append(data, chunk...)
		if last {
			break
		}
	}
	c.log.Debug("transaction finished", gwlog.KV("txn", txn), gwlog.KV("tid", tid))
	return payload.Parse(data), nil
}

func toDictList(list []payload.ParsedValue) []map[string]payload.ParsedValue {
	out := make([]map[string]payload.ParsedValue, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]payload.ParsedValue); ok {
			out = append(out, m)
		}
	}
	return out
}

// dictListToMap turns [{key: k, value: v}, ...] into {k: v, ...},
// matching FESL's flattened stat entry shape.
func dictListToMap(entries []map[string]payload.ParsedValue) map[string]payload.ParsedValue {
	out := map[string]payload.ParsedValue{}
	for _, e := range entries {
		k, ok := e["key"].(string)
		if !ok {
			continue
		}
		out[k] = e["value"]
	}
	return out
}

var parseMapUserLookup = payload.ParseMap{
	payload.MagicFallback: payload.KindString,
}

var parseMapStats = payload.ParseMap{
	"key":                 payload.KindString,
	"value":               payload.KindFloat,
	payload.MagicFallback: payload.KindString,
}
