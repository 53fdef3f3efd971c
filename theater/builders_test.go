package theater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cetteup/bfbc2-statsd-go/packet"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

func TestBuildConnPacketCarriesClientString(t *testing.T) {
	p := buildConnPacket(1, "bfbc2-pc")
	pl := payload.Parse(p.GetData())
	prod, err := pl.GetStr("PROD", "")
	require.NoError(t, err)
	assert.Equal(t, "bfbc2-pc", prod)
	assert.Equal(t, "CONN", string(p.Header[:4]))
}

func TestBuildUserPacketCarriesLKey(t *testing.T) {
	p := buildUserPacket(2, "SOMELKEY")
	pl := payload.Parse(p.GetData())
	lkey, err := pl.GetStr("LKEY", "")
	require.NoError(t, err)
	assert.Equal(t, "SOMELKEY", lkey)
}

func TestBuildPingPacketAlwaysCarriesTIDZero(t *testing.T) {
	p := buildPingPacket()
	assert.Equal(t, 0, p.GetTID())
	assert.Equal(t, "PING", string(p.Header[:4]))
}

func TestBuildGlstPacketCarriesLobbyID(t *testing.T) {
	p := buildGlstPacket(5, 42)
	pl := payload.Parse(p.GetData())
	lid, err := pl.GetInt("LID", 0)
	require.NoError(t, err)
	assert.Equal(t, 42, lid)
	assert.Equal(t, "GLST", string(p.Header[:4]))
}

func TestBuildGdatPacketUsesProvidedIDFields(t *testing.T) {
	p := buildGdatPacket(6, payload.Dict{{Key: "UID", Value: 99}})
	pl := payload.Parse(p.GetData())
	uid, err := pl.GetInt("UID", 0)
	require.NoError(t, err)
	assert.Equal(t, 99, uid)
	assert.Equal(t, packet.TheaterRequest, mustTT(t, p))
}

func mustTT(t *testing.T, p *packet.Packet) packet.TransmissionType {
	t.Helper()
	tt, err := p.GetTransmissionType()
	require.NoError(t, err)
	return tt
}
