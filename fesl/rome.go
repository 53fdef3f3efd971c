package fesl

import (
	"time"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/internal/gwlog"
	"github.com/cetteup/bfbc2-statsd-go/packet"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

// RomeClient is the FESL client variant for Battlefield 1943 ("Project
// Rome"): it dials without TLS, authenticates with an email-keyed NuLogin
// followed by a persona login, and implements only the subset of
// operations Rome's backend actually supports.
type RomeClient struct {
	*Client
	personaName string
}

// NewRomeClient creates a Rome FESL session against the PC backend (Rome
// has no PS3/Xbox FESL backend distinct from it). email is the EA account
// email NuLogin authenticates with; personaName selects which of the
// account's personas to additionally log into, required before a Theater
// lkey becomes available.
func NewRomeClient(email, password, personaName string, timeout time.Duration, opts ...Option) *RomeClient {
	backend := bfconst.Rome[bfconst.PlatformPC]
	c := newClient(backend, email, password, timeout, false, opts...)
	return &RomeClient{Client: c, personaName: personaName}
}

// Login performs the account-level NuLogin, then the persona login Rome
// additionally requires.
func (rc *RomeClient) Login() (*packet.Packet, error) {
	if rc.trackSteps {
		if _, ok := rc.completedSteps[StepLogin]; ok {
			return rc.loginPersona()
		}
		if _, ok := rc.completedSteps[StepHello]; !ok {
			if _, err := rc.Hello(); err != nil {
				return nil, err
			}
		}
	}

	tid := rc.nextTID()
	req := buildRomeLoginPacket(tid, rc.username, rc.password)
	rc.log.Debug("transaction started", gwlog.KV("txn", "NuLogin"), gwlog.KV("tid", tid))
	if err := rc.conn.Write(req); err != nil {
		return nil, err
	}
	resp, err := rc.wrappedRead(tid)
	if err != nil {
		rc.log.Warn("transaction failed", gwlog.KV("txn", "NuLogin"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	if err := validateLoginResponse(resp); err != nil {
		rc.log.Warn("login rejected", gwlog.KV("txn", "NuLogin"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	rc.completedSteps[StepLogin] = resp
	rc.log.Debug("transaction finished", gwlog.KV("txn", "NuLogin"), gwlog.KV("tid", tid))

	return rc.loginPersona()
}

func (rc *RomeClient) loginPersona() (*packet.Packet, error) {
	if rc.trackSteps {
		if cached, ok := rc.completedSteps[StepLoginPersona]; ok {
			return cached, nil
		}
	}

	tid := rc.nextTID()
	req := buildLoginPersonaPacket(tid, rc.personaName)
	rc.log.Debug("transaction started", gwlog.KV("txn", "NuLoginPersona"), gwlog.KV("tid", tid))
	if err := rc.conn.Write(req); err != nil {
		return nil, err
	}
	resp, err := rc.wrappedRead(tid)
	if err != nil {
		rc.log.Warn("transaction failed", gwlog.KV("txn", "NuLoginPersona"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	if err := validateLoginResponse(resp); err != nil {
		rc.log.Warn("login rejected", gwlog.KV("txn", "NuLoginPersona"), gwlog.KV("tid", tid), gwlog.KVErr(err))
		return nil, err
	}
	rc.completedSteps[StepLoginPersona] = resp
	rc.log.Info("transaction finished", gwlog.KV("txn", "NuLoginPersona"), gwlog.KV("tid", tid))
	return resp, nil
}

// Logout sends Goodbye if either login step ran, but (unlike the other
// backends) does not wait for a response: Rome never replies to logout.
func (rc *RomeClient) Logout() (*packet.Packet, error) {
	if !rc.trackSteps {
		return nil, nil
	}
	_, loggedIn := rc.completedSteps[StepLogin]
	_, personaLoggedIn := rc.completedSteps[StepLoginPersona]
	if !loggedIn && !personaLoggedIn {
		return nil, nil
	}

	tid := rc.nextTID()
	req := buildLogoutPacket(tid)
	rc.log.Debug("transaction started", gwlog.KV("txn", "Goodbye"), gwlog.KV("tid", tid))
	if err := rc.conn.Write(req); err != nil {
		return nil, err
	}
	rc.completedSteps = map[Step]*packet.Packet{}
	rc.log.Debug("transaction finished", gwlog.KV("txn", "Goodbye"), gwlog.KV("tid", tid))
	return nil, nil
}

// Close performs a best-effort logout and closes the underlying
// transport. Defined here (rather than relying on the embedded Client's
// Close) because Go method promotion is static: Client.Close would call
// Client.Logout, not this type's override.
func (rc *RomeClient) Close() error {
	if _, err := rc.Logout(); err != nil {
		if !bferrors.Is(err, bferrors.Connection) && !bferrors.Is(err, bferrors.Timeout) {
			rc.log.Warn("unexpected error during best-effort logout", gwlog.KVErr(err))
		}
	}
	return rc.conn.Close()
}

// GetLKey returns the persona login key, performing the persona login
// first if it hasn't run yet. Rome's lkey comes from the persona login,
// not the account-level login the other backends use.
func (rc *RomeClient) GetLKey() (string, error) {
	if rc.trackSteps {
		if _, ok := rc.completedSteps[StepLoginPersona]; !ok {
			if _, err := rc.Login(); err != nil {
				return "", err
			}
		}
	}
	pl := payload.Parse(rc.completedSteps[StepLoginPersona].GetData())
	return pl.GetStr("lkey", "")
}

func errNotImplementedOnRome(operation string) error {
	return bferrors.New(bferrors.Protocol, operation+" is not implemented on Project Rome")
}

func (rc *RomeClient) LookupUserIdentifiers(identifiers []string, namespace bfconst.Namespace, lookupType bfconst.LookupType) ([]map[string]payload.ParsedValue, error) {
	return nil, errNotImplementedOnRome("looking up players by name/id")
}

func (rc *RomeClient) LookupUserIdentifier(identifier string, namespace bfconst.Namespace, lookupType bfconst.LookupType) (map[string]payload.ParsedValue, error) {
	return nil, errNotImplementedOnRome("looking up players by name/id")
}

func (rc *RomeClient) SearchName(screenName string, namespace bfconst.Namespace) (string, []map[string]payload.ParsedValue, error) {
	return "", nil, errNotImplementedOnRome("searching players by name")
}

func (rc *RomeClient) GetStats(userid int, keys []string) (map[string]payload.ParsedValue, error) {
	return nil, errNotImplementedOnRome("fetching stats of (other) players")
}

func (rc *RomeClient) GetLeaderboard(minRank, maxRank int, sortBy string, keys []string) ([]map[string]payload.ParsedValue, error) {
	return nil, errNotImplementedOnRome("leaderboards")
}

func (rc *RomeClient) GetDogtags(userid int) ([]DogtagResult, error) {
	return nil, errNotImplementedOnRome("fetching dogtags of (other) players")
}
