package fesl

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/packet"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

// processResponsePacket maps FESL error codes to a bferrors.Error, and
// reassembles a MultiPacketResponse chunk into its decoded data, reporting
// whether this was the chunk carrying the "eof" (trailing 0x00) marker.
// Single-packet responses return their body verbatim, done=true.
func processResponsePacket(p *packet.Packet) (data []byte, done bool, err error) {
	tt, err := p.GetTransmissionType()
	if err != nil {
		return nil, false, err
	}
	pl := payload.Parse(p.GetData())

	if raw, ok := pl.Get("errorCode"); ok {
		code, convErr := pl.GetInt("errorCode", 0)
		if convErr != nil {
			return nil, false, convErr
		}
		method, _ := pl.GetStr("TXN", "")
		message, _ := pl.GetStr("localizedMessage", "")
		_ = raw
		return nil, false, mapFeslError(code, method, message)
	}

	if tt != packet.FeslSinglePacketResponse && tt != packet.FeslMultiPacketResponse {
		return nil, false, bferrors.New(bferrors.Protocol, "fesl: server returned an unexpected response type")
	}

	if tt == packet.FeslMultiPacketResponse {
		// GetStr already percent-decodes the raw wire bytes; only the
		// base64 layer remains to peel off here.
		decoded, err := pl.GetStr("data", "")
		if err != nil {
			return nil, false, err
		}
		chunk, err := base64.StdEncoding.DecodeString(decoded)
		if err != nil {
			return nil, false, bferrors.Wrap(bferrors.Protocol, "fesl: invalid base64 in multi-packet chunk", err)
		}
		if len(chunk) > 0 && chunk[len(chunk)-1] == 0x00 {
			return chunk[:len(chunk)-1], true, nil
		}
		return chunk, false, nil
	}

	return p.GetData(), true, nil
}

func mapFeslError(code int, method, message string) error {
	switch {
	case code == 21:
		return bferrors.NewCoded(bferrors.Parameter, code, "FESL returned invalid parameter error")
	case code == 101 && method == "NuLookupUserInfo":
		return bferrors.NewNotFound(bferrors.Player, "FESL returned player not found error")
	case code == 101 && method == "NuSearchOwners":
		return bferrors.NewCoded(bferrors.Search, code, "FESL returned player not found error")
	case code == 104 && method == "NuSearchOwners":
		return bferrors.NewCoded(bferrors.Search, code, "FESL found no or too many results matching the search query")
	case code == 223 && method == "SearchOwners":
		return bferrors.NewCoded(bferrors.Search, code, "FESL found too many results matching the search query")
	case code == 5000 && strings.HasPrefix(method, "GetRecord"):
		return bferrors.NewNotFound(bferrors.Record, "FESL returned record not found error")
	default:
		return bferrors.NewCoded(bferrors.Protocol, code, fmt.Sprintf("FESL returned an error: %s (code %d)", message, code))
	}
}
