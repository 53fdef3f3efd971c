package theater

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/packet"
)

func newTestRomeClient(t *testing.T, host string, port int, lkey string) *RomeClient {
	t.Helper()
	c := New(host, port, lkey, "bf1943-pc", bfconst.PlatformPC, 2*time.Second)
	return &RomeClient{Client: c}
}

// TestRomeClientGetServersRejectsMismatchedLobby exercises Rome's
// ignores-the-lobby-filter quirk: the server returns a server whose LID
// doesn't match what was requested, which RomeClient.GetServers must
// surface as a lobby-not-found error rather than returning it as-is.
func TestRomeClientGetServersRejectsMismatchedLobby(t *testing.T) {
	ln := listenTCP(t)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		require.NoError(t, err)
		defer conn.Close()

		connReq := readPacket(t, conn)
		connResp := packet.Build(packet.Theater, []byte("CONN"), []byte("TID="+strconv.Itoa(connReq.GetTID())), packet.TheaterOKResponse, connReq.GetTID())
		_, err = conn.Write(connResp.Bytes())
		require.NoError(t, err)

		userReq := readPacket(t, conn)
		userResp := packet.Build(packet.Theater, []byte("USER"), []byte("NAME=player1"), packet.TheaterOKResponse, userReq.GetTID())
		_, err = conn.Write(userResp.Bytes())
		require.NoError(t, err)

		glstReq := readPacket(t, conn)
		glstResp := packet.Build(packet.Theater, []byte("GLST"), []byte("NUM-GAMES=1"), packet.TheaterOKResponse, glstReq.GetTID())
		_, err = conn.Write(glstResp.Bytes())
		require.NoError(t, err)

		// Rome ignores the requested lobby id (1) and returns a server
		// belonging to lobby 2 regardless.
		gdatResp := packet.Build(packet.Theater, []byte("GDAT"), []byte("LID=2\nGID=7\nAP=0"), packet.TheaterOKResponse, glstReq.GetTID())
		_, err = conn.Write(gdatResp.Bytes())
		require.NoError(t, err)
	}()

	host, port := hostPort(t, ln)
	rc := newTestRomeClient(t, host, port, "SOMELKEY")

	_, err := rc.GetServers(1)
	require.Error(t, err)
	var bfErr *bferrors.Error
	require.True(t, errors.As(err, &bfErr))
	assert.Equal(t, bferrors.NotFound, bfErr.Kind)
	assert.Equal(t, bferrors.Lobby, bfErr.Not)

	require.NoError(t, rc.Close())
	<-done
}

func TestRomeClientGetCurrentServerIsUnsupported(t *testing.T) {
	rc := newTestRomeClient(t, "127.0.0.1", 1, "SOMELKEY")
	_, _, _, err := rc.GetCurrentServer(1)
	assert.Error(t, err)
}
