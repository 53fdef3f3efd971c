// Package theater implements a client for EA's Theater game-server
// discovery/lobby protocol used alongside FESL by Bad Company, Bad
// Company 2 and Battlefield 1943.
package theater

import (
	"time"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/internal/gwlog"
	"github.com/cetteup/bfbc2-statsd-go/packet"
	"github.com/cetteup/bfbc2-statsd-go/payload"
	"github.com/cetteup/bfbc2-statsd-go/transport"
)

// Step identifies a Theater session milestone whose response packet is
// cached so a repeated call returns it without I/O.
type Step int

const (
	StepConn Step = iota
	StepUser
)

// Client is a single Theater session: a plaintext TCP connection
// authenticated with an lkey obtained from a prior FESL login.
type Client struct {
	conn           *transport.Conn
	platform       bfconst.Platform
	clientString   string
	lkey           string
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

// New creates a Client for a Theater host:port (as returned by FESL's
// Hello response), authenticating with lkey once Authenticate is called.
// clientString/platform come from the bfconst.Backend used for the FESL
// session this Theater session follows.
func New(host string, port int, lkey string, clientString string, platform bfconst.Platform, timeout time.Duration, opts ...Option) *Client {
	if timeout < 2*time.Second {
		timeout = 2 * time.Second
	}
	c := &Client{
		platform:       platform,
		clientString:   clientString,
		lkey:           lkey,
		trackSteps:     true,
		completedSteps: map[Step]*packet.Packet{},
		log:            gwlog.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.conn = transport.New(host, port, packet.Theater, false, transport.WithTimeout(timeout), transport.WithLogger(c.log))
	return c
}

func (c *Client) nextTID() int {
	c.tid++
	return c.tid
}

// wrappedRead reads a single packet, automatically responding to and
// discarding server-initiated PING prompts, and skipping any packet whose
// transaction id is behind the one we're waiting for.
func (c *Client) wrappedRead(tid int) (*packet.Packet, error) {
	p, err := c.conn.Read()
	if err != nil {
		return nil, err
	}
	if isPingPrompt(p) {
		c.log.Debug("auto-responding to server prompt", gwlog.KV("txn", "PING"))
		if err := c.Ping(); err != nil {
			return nil, err
		}
		return c.wrappedRead(tid)
	}
	if p.GetTID() < tid {
		return c.wrappedRead(tid)
	}
	return p, nil
}

func isPingPrompt(p *packet.Packet) bool {
	return len(p.Header) >= 4 && string(p.Header[:4]) == "PING"
}

// Connect performs the initial CONN handshake.
func (c *Client) Connect() (*packet.Packet, error) {
	if c.trackSteps {
		if cached, ok := c.completedSteps[StepConn]; ok {
			return cached, nil
		}
	}

	tid := c.nextTID()
	req := buildConnPacket(tid, c.clientString)
	c.log.Debug("transaction started", gwlog.KV("txn", "CONN"), gwlog.KV("tid", tid))
	if err := c.conn.Write(req); err != nil {
		return nil, err
	}
	resp, err := c.conn.Read()
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "CONN"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	c.completedSteps[StepConn] = resp
	c.log.Debug("transaction finished", gwlog.KV("txn", "CONN"), gwlog.KV("tid", tid))
	return resp, nil
}

// Authenticate logs into Theater with the lkey obtained from FESL,
// performing Connect first if it hasn't run yet.
func (c *Client) Authenticate() (*packet.Packet, error) {
	if c.trackSteps {
		if cached, ok := c.completedSteps[StepUser]; ok {
			return cached, nil
		}
		if _, ok := c.completedSteps[StepConn]; !ok {
			if _, err := c.Connect(); err != nil {
				return nil, err
			}
		}
	}

	tid := c.nextTID()
	req := buildUserPacket(tid, c.lkey)
	c.log.Debug("transaction started", gwlog.KV("txn", "USER"), gwlog.KV("tid", tid))
	if err := c.conn.Write(req); err != nil {
		return nil, err
	}
	resp, err := c.conn.Read()
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "USER"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}

	pl := payload.Parse(resp.GetData())
	if _, ok := pl.Get("NAME"); !ok {
		err := bferrors.New(bferrors.Auth, "Theater authentication failed")
		c.log.Warn("authentication rejected", gwlog.KV("txn", "USER"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}

	c.completedSteps[StepUser] = resp
	c.log.Info("transaction finished", gwlog.KV("txn", "USER"), gwlog.KV("tid", tid))
	return resp, nil
}

// Ping replies to a server ping prompt. The reply always carries a
// literal TID=0, regardless of the session's actual transaction counter.
func (c *Client) Ping() error {
	return c.conn.Write(buildPingPacket())
}

// Close closes the underlying connection. Theater has no explicit
// logout/goodbye transaction to send.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) ensureAuthenticated() error {
	if !c.trackSteps {
		return nil
	}
	if _, ok := c.completedSteps[StepUser]; ok {
		return nil
	}
	_, err := c.Authenticate()
	return err
}

// GetLobbies retrieves all available game lobbies: Theater responds with
// one LLST packet (lobby count) followed by that many LDAT packets.
func (c *Client) GetLobbies() ([]map[string]payload.ParsedValue, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	tid := c.nextTID()
	c.log.Debug("transaction started", gwlog.KV("txn", "LLST"), gwlog.KV("tid", tid))
	if err := c.conn.Write(buildLlstPacket(tid)); err != nil {
		return nil, err
	}

	llstResp, err := c.wrappedRead(tid)
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "LLST"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	llst := payload.Parse(llstResp.GetData())
	numLobbies, err := llst.GetInt("NUM-LOBBIES", 0)
	if err != nil {
		return nil, err
	}

	lobbies := make([]map[string]payload.ParsedValue, 0, numLobbies)
	for i := 0; i < numLobbies; i++ {
		ldatResp, err := c.wrappedRead(tid)
		if err != nil {
			return nil, err
		}
		ldat, err := payload.Parse(ldatResp.GetData()).GetDict("", parseMapLDAT, nil)
		if err != nil {
			return nil, err
		}
		lobbies = append(lobbies, ldat)
	}
	c.log.Debug("transaction finished", gwlog.KV("txn", "LLST"), gwlog.KV("tid", tid), gwlog.KV("lobbies", numLobbies))
	return lobbies, nil
}

// GetServers retrieves all available game servers within lobbyID: Theater
// responds with one GLST packet (matching-server count) followed by that
// many GDAT packets.
func (c *Client) GetServers(lobbyID int) ([]map[string]payload.ParsedValue, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	tid := c.nextTID()
	c.log.Debug("transaction started", gwlog.KV("txn", "GLST"), gwlog.KV("tid", tid))
	if err := c.conn.Write(buildGlstPacket(tid, lobbyID)); err != nil {
		return nil, err
	}

	glstResp, err := c.wrappedRead(tid)
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "GLST"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	if err := classifyErrorResponse(glstResp); err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "GLST"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	glst := payload.Parse(glstResp.GetData())
	// NUM-GAMES (servers matching the request's filters) is always <=
	// LOBBY-NUM-GAMES (total servers in the lobby); Theater only ever
	// sends GDAT packets for the former.
	numGames, err := glst.GetInt("NUM-GAMES", 0)
	if err != nil {
		return nil, err
	}

	servers := make([]map[string]payload.ParsedValue, 0, numGames)
	for i := 0; i < numGames; i++ {
		gdatResp, err := c.wrappedRead(tid)
		if err != nil {
			return nil, err
		}
		gdat, err := payload.Parse(gdatResp.GetData()).GetDict("", parseMapGDAT, nil)
		if err != nil {
			return nil, err
		}
		servers = append(servers, gdat)
	}
	c.log.Debug("transaction finished", gwlog.KV("txn", "GLST"), gwlog.KV("tid", tid), gwlog.KV("servers", numGames))
	return servers, nil
}

// GetServerDetails retrieves full details and the player list for one
// server, identified by its lobby and game id.
func (c *Client) GetServerDetails(lobbyID, gameID int) (map[string]payload.ParsedValue, map[string]payload.ParsedValue, []map[string]payload.ParsedValue, error) {
	return c.getGdat(payload.Dict{
		{Key: "LID", Value: lobbyID},
		{Key: "GID", Value: gameID},
	})
}

// GetCurrentServer retrieves full details and the player list for the
// server a given user is currently playing on. Returns a
// bferrors.NotFound(Player) error if the user isn't currently online.
func (c *Client) GetCurrentServer(userID int) (map[string]payload.ParsedValue, map[string]payload.ParsedValue, []map[string]payload.ParsedValue, error) {
	return c.getGdat(payload.Dict{
		{Key: "UID", Value: userID},
	})
}

// getGdat retrieves GDAT (general data), GDET (extended data) and one
// PDAT (player data) per active player for one server.
func (c *Client) getGdat(idFields payload.Dict) (map[string]payload.ParsedValue, map[string]payload.ParsedValue, []map[string]payload.ParsedValue, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, nil, nil, err
	}

	tid := c.nextTID()
	c.log.Debug("transaction started", gwlog.KV("txn", "GDAT"), gwlog.KV("tid", tid))
	if err := c.conn.Write(buildGdatPacket(tid, idFields)); err != nil {
		return nil, nil, nil, err
	}

	gdatResp, err := c.wrappedRead(tid)
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "GDAT"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, nil, nil, err
	}
	if err := classifyErrorResponse(gdatResp); err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "GDAT"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, nil, nil, err
	}
	gdat, err := payload.Parse(gdatResp.GetData()).GetDict("", parseMapGDAT, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	gdetResp, err := c.wrappedRead(tid)
	if err != nil {
		c.log.Warn("transaction failed", gwlog.KV("txn", "GDET"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, nil, nil, err
	}
	gdet, err := payload.Parse(gdetResp.GetData()).GetDict("", parseMapGDET, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	numPlayers, ok := gdat["AP"].(int)
	if !ok {
		numPlayers = 0
	}
	players := make([]map[string]payload.ParsedValue, 0, numPlayers)
	for i := 0; i < numPlayers; i++ {
		pdatResp, err := c.wrappedRead(tid)
		if err != nil {
			return nil, nil, nil, err
		}
		pdat, err := payload.Parse(pdatResp.GetData()).GetDict("", parseMapPDAT, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		players = append(players, pdat)
	}

	c.log.Debug("transaction finished", gwlog.KV("txn", "GDAT"), gwlog.KV("tid", tid), gwlog.KV("players", numPlayers))
	return gdat, gdet, players, nil
}

var parseMapLDAT = payload.ParseMap{
	"LID":                 payload.KindInt,
	"NAME":                payload.KindString,
	payload.MagicFallback: payload.KindString,
}

var parseMapGDAT = payload.ParseMap{
	"LID":                 payload.KindInt,
	"GID":                 payload.KindInt,
	"AP":                  payload.KindInt,
	"MAX-PLAYERS":         payload.KindInt,
	"PORT":                payload.KindInt,
	"QP":                  payload.KindInt,
	payload.MagicFallback: payload.KindString,
}

var parseMapGDET = payload.ParseMap{
	payload.MagicFallback: payload.KindString,
}

var parseMapPDAT = payload.ParseMap{
	"UID":                 payload.KindInt,
	"PID":                 payload.KindInt,
	payload.MagicFallback: payload.KindString,
}
