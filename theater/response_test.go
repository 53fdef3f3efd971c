package theater

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/packet"
)

func withHeaderTag(tag string) *packet.Packet {
	p := packet.Build(packet.Theater, []byte(tag[:4]), []byte{}, packet.TheaterRequest, 1)
	// Overwrite bytes 4:8 directly to simulate the server's raw error tag,
	// which packet.SetTransmissionType can't produce (it only ever sets
	// the Request/OKResponse shapes; ErrorResponse only arises on receipt).
	copy(p.Header[4:8], []byte(tag[4:8]))
	return p
}

func TestClassifyErrorResponseRecognizesLobbyNotFound(t *testing.T) {
	err := classifyErrorResponse(withHeaderTag("GLSTnrom"))
	assert.True(t, bferrors.Is(err, bferrors.NotFound))
}

func TestClassifyErrorResponseRecognizesServerNotFound(t *testing.T) {
	err := classifyErrorResponse(withHeaderTag("GDATngam"))
	assert.True(t, bferrors.Is(err, bferrors.NotFound))
}

func TestClassifyErrorResponseRecognizesPlayerNotFound(t *testing.T) {
	err := classifyErrorResponse(withHeaderTag("GDATntfn"))
	assert.True(t, bferrors.Is(err, bferrors.NotFound))
}

func TestClassifyErrorResponseRecognizesBadParameter(t *testing.T) {
	err := classifyErrorResponse(withHeaderTag("GDATbpar"))
	assert.True(t, bferrors.Is(err, bferrors.Parameter))
}

func TestClassifyErrorResponseReturnsNilForOKResponse(t *testing.T) {
	p := packet.Build(packet.Theater, []byte("GDAT"), []byte{}, packet.TheaterOKResponse, 1)
	assert.NoError(t, classifyErrorResponse(p))
}
