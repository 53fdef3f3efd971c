package theater

import (
	"strings"

	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/packet"
)

// classifyErrorResponse inspects a response packet's raw header for one of
// Theater's error tag combinations and returns the matching bferrors.Error,
// or nil if the response isn't an error.
func classifyErrorResponse(p *packet.Packet) error {
	header := string(p.Header)
	switch {
	case strings.HasPrefix(header, "GLSTnrom"):
		// "no room" (lobby not found): only surfaces from GLST, when the
		// requested lobby id doesn't exist.
		return bferrors.NewNotFound(bferrors.Lobby, "Theater returned lobby not found error")
	case strings.HasPrefix(header, "GDATngam"):
		// "no game": the requested lobby/game id combination doesn't exist.
		return bferrors.NewNotFound(bferrors.Server, "Theater returned server not found error")
	case strings.HasPrefix(header, "GDATntfn"):
		// "not found": the requested user either doesn't exist or isn't
		// currently playing on any server.
		return bferrors.NewNotFound(bferrors.Player, "Theater returned player not found/not online error")
	case len(header) >= 8 && header[4:8] == "bpar":
		return bferrors.NewCoded(bferrors.Parameter, 0, "Theater returned bad parameter error")
	default:
		return nil
	}
}
