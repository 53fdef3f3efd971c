package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeslSetsLengthAndTID(t *testing.T) {
	p := Build(FESL, []byte("fsys"), []byte("TXN=Hello"), FeslSinglePacketRequest, 7)
	require.NoError(t, p.Validate())

	assert.Equal(t, 7, p.GetTID())
	tt, err := p.GetTransmissionType()
	require.NoError(t, err)
	assert.Equal(t, FeslSinglePacketRequest, tt)
	assert.Equal(t, byte(0xc0), p.Header[4])
}

func TestFeslHeaderLayout(t *testing.T) {
	p := Build(FESL, []byte("acct"), []byte("x=1"), FeslSinglePacketResponse, 0x010203)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, p.Header[5:8])
}

func TestTheaterSetTIDRewritesBody(t *testing.T) {
	p := Build(Theater, []byte("CONN"), []byte("TXN=Hello"), TheaterRequest, 0)
	p.SetTID(42)
	require.NoError(t, p.Validate())
	assert.Equal(t, 42, p.GetTID())
	assert.Contains(t, string(p.Body), "TID=42")
}

func TestTheaterErrorResponseDetected(t *testing.T) {
	p := &Packet{Family: Theater, Header: make([]byte, HeaderLength)}
	copy(p.Header[:4], []byte("GDAT"))
	copy(p.Header[4:8], []byte("ngam"))
	body := []byte("TXN=GetGameData\n\x00")
	p.Body = body
	copy(p.Header[8:12], int2bytes(len(p.Header)+len(body), 4))

	require.NoError(t, p.ValidateHeader())
	tt, err := p.GetTransmissionType()
	require.NoError(t, err)
	assert.Equal(t, TheaterErrorResponse, tt)

	tag, ok := p.TheaterErrorTag()
	assert.True(t, ok)
	assert.Equal(t, "ngam", tag)
}

func TestValidateHeaderRejectsUnknownTag(t *testing.T) {
	p := &Packet{Family: FESL, Header: make([]byte, HeaderLength)}
	copy(p.Header[:4], []byte("bogu"))
	copy(p.Header[8:12], int2bytes(HeaderLength+1, 4))
	err := p.ValidateHeader()
	require.Error(t, err)
}

func TestValidateBodyDetectsLengthMismatch(t *testing.T) {
	p := Build(FESL, []byte("fsys"), []byte("a=1"), FeslSinglePacketRequest, 1)
	p.Body = append(p.Body, 0xff)
	err := p.ValidateBody()
	require.Error(t, err)
}

func TestGetDataStripsTrailingNull(t *testing.T) {
	p := Build(FESL, []byte("fsys"), []byte("a=1\nb=2"), FeslSinglePacketRequest, 1)
	lines := p.GetDataLines()
	require.Len(t, lines, 3) // "a=1", "b=2", "" (from build's "\n\x00" tail)
	assert.Equal(t, []byte("a=1"), lines[0])
	assert.Equal(t, []byte("b=2"), lines[1])
}
