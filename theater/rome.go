package theater

import (
	"time"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

// RomeClient is the Theater client variant for Battlefield 1943 ("Project
// Rome"). Rome's Theater backend behaves oddly around scoping: it ignores
// the lobby id filter on GLST (always returning the same server list) and
// returns an "empty" GDAT/GDET pair instead of an error-tagged header when
// a server or player can't be found, so the usual header-tag error
// classification never fires and has to be replaced with a field-presence
// check performed after a full, otherwise-successful read.
type RomeClient struct {
	*Client
}

// NewRomeClient creates a Rome Theater session, always using the PC client
// string and platform.
func NewRomeClient(host string, port int, lkey string, timeout time.Duration, opts ...Option) *RomeClient {
	c := New(host, port, lkey, "bf1943-pc", bfconst.PlatformPC, timeout, opts...)
	return &RomeClient{Client: c}
}

// GetServers is like Client.GetServers, but additionally verifies every
// returned server actually belongs to lobbyID, since Rome returns the same
// full server list regardless of the lobby id it was asked for.
func (rc *RomeClient) GetServers(lobbyID int) ([]map[string]payload.ParsedValue, error) {
	servers, err := rc.Client.GetServers(lobbyID)
	if err != nil {
		return nil, err
	}
	for _, s := range servers {
		if lid, ok := s["LID"].(int); !ok || lid != lobbyID {
			return nil, bferrors.NewNotFound(bferrors.Lobby, "Theater returned lobby not found error")
		}
	}
	return servers, nil
}

// GetServerDetails is like Client.GetServerDetails, but additionally
// checks for Rome's "empty GDAT instead of an error" not-found signal.
func (rc *RomeClient) GetServerDetails(lobbyID, gameID int) (map[string]payload.ParsedValue, map[string]payload.ParsedValue, []map[string]payload.ParsedValue, error) {
	gdat, gdet, players, err := rc.getGdat(payload.Dict{
		{Key: "LID", Value: lobbyID},
		{Key: "GID", Value: gameID},
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if err := classifyGdatRomeError(gdat, &lobbyID); err != nil {
		return nil, nil, nil, err
	}
	return gdat, gdet, players, nil
}

// GetCurrentServer is not implemented on Project Rome.
func (rc *RomeClient) GetCurrentServer(userID int) (map[string]payload.ParsedValue, map[string]payload.ParsedValue, []map[string]payload.ParsedValue, error) {
	return nil, nil, nil, bferrors.New(bferrors.Protocol, "fetching the current server of players is not implemented on Project Rome")
}

// classifyGdatRomeError reports Rome's not-found signal: an "empty" GDAT
// missing the LID field (server not found if a lobby id was requested,
// player not found/not online if only a user id was requested), or a GDAT
// carrying a different LID than requested (same server-not-found case,
// since Rome ignores the requested lobby id otherwise).
func classifyGdatRomeError(gdat map[string]payload.ParsedValue, requestedLID *int) error {
	lid, hasLID := gdat["LID"].(int)
	if requestedLID != nil {
		if !hasLID || lid != *requestedLID {
			return bferrors.NewNotFound(bferrors.Server, "Theater returned server not found error")
		}
		return nil
	}
	if !hasLID {
		return bferrors.NewNotFound(bferrors.Player, "Theater returned player not found/not online error")
	}
	return nil
}
