// Package packet implements the 12-byte FESL/Theater header framing:
// transmission-type encoding, transaction-id placement, length-indicator
// maintenance and header/body validation.
package packet

import (
	"encoding/binary"

	"github.com/cetteup/bfbc2-statsd-go/bferrors"
)

// HeaderLength is the fixed size, in bytes, of every FESL/Theater header.
const HeaderLength = 12

// Family distinguishes FESL packets (tid in the header) from Theater
// packets (tid in the body trailer), and supplies the family-specific
// validation/transmission-type/tid behavior.
type Family int

const (
	FESL Family = iota
	Theater
)

// TransmissionType is a family-specific transmission-type discriminator.
// FESL and Theater each define their own constants below; callers must
// pass the constant matching a packet's Family.
type TransmissionType int

const (
	// FESL transmission types (header byte 4).
	FeslPing TransmissionType = iota
	FeslSinglePacketResponse
	FeslMultiPacketResponse
	FeslSinglePacketRequest
	FeslMultiPacketRequest
)

const (
	// Theater transmission types (header bytes 4-7). ErrorResponse is
	// never set by SetTransmissionType: it only ever arises from a
	// server reply and is reported by GetTransmissionType.
	TheaterRequest TransmissionType = iota + 100
	TheaterOKResponse
	TheaterErrorResponse
)

var validFeslTags = map[string]bool{
	"fsys": true, "acct": true, "rank": true, "recp": true,
}

var validTheaterTags = map[string]bool{
	"CONN": true, "USER": true, "LLST": true, "LDAT": true,
	"GLST": true, "GDAT": true, "GDET": true, "PDAT": true, "PING": true,
}

// Theater 4-byte error indicators, per spec.md §3: ngam = no game/server
// not found, nrom = no room/lobby not found, ntfn = player not found,
// bpar = bad parameter.
var theaterErrorTags = map[string]bool{
	"ngam": true, "nrom": true, "ntfn": true, "bpar": true,
}

// Packet is a single FESL or Theater wire packet: a 12-byte header plus a
// body. The body, once complete, always ends with a single \x00 byte.
type Packet struct {
	Family Family
	Header []byte
	Body   []byte
}

// Build constructs a packet with valid length indicators, the given
// transmission type, and (for FESL) the given transaction id. headerStub
// is the leading portion of the header (at least the 4-byte type tag);
// any missing bytes are zero-filled. bodyData is trailed with "\n\x00".
func Build(family Family, headerStub []byte, bodyData []byte, tt TransmissionType, tid int) *Packet {
	header := make([]byte, HeaderLength)
	copy(header, headerStub)

	body := make([]byte, 0, len(bodyData)+2)
	body = append(body, bodyData...)
	body = append(body, '\n', 0x00)

	p := &Packet{Family: family, Header: header, Body: body}
	p.SetTransmissionType(tt)
	if family == FESL || tid != 0 {
		p.SetTID(tid)
	}
	p.setLengthIndicators()
	return p
}

// HeaderBuflen returns how many more header bytes are needed to complete
// the header, given the bytes read so far.
func HeaderBuflen(headerSoFar int) int {
	return HeaderLength - headerSoFar
}

// BodyBuflen returns how many more body bytes are needed, given the
// header's indicated total length and the body bytes read so far.
func (p *Packet) BodyBuflen() int {
	return p.IndicatedBodyLength() - len(p.Body)
}

func bytes2int(b []byte) int {
	switch len(b) {
	case 3:
		return int(b[0])<<16 | int(b[1])<<8 | int(b[2])
	case 4:
		return int(binary.BigEndian.Uint32(b))
	default:
		var n int
		for _, c := range b {
			n = n<<8 | int(c)
		}
		return n
	}
}

func int2bytes(n int, length int) []byte {
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(n & 0xff)
		n >>= 8
	}
	return out
}

func (p *Packet) setLengthIndicators() {
	total := len(p.Header) + len(p.Body)
	copy(p.Header[8:12], int2bytes(total, 4))
}

// IndicatedLength returns the total packet length (header + body) as
// declared by header bytes 8-11.
func (p *Packet) IndicatedLength() int {
	return bytes2int(p.Header[8:12])
}

// IndicatedBodyLength returns IndicatedLength minus the header size.
func (p *Packet) IndicatedBodyLength() int {
	return p.IndicatedLength() - len(p.Header)
}

// SetTID sets the transaction id: FESL stores it in header bytes 5-7
// (big-endian 24-bit); Theater rewrites the body trailer to carry a
// "TID=<n>" line and recomputes length indicators.
func (p *Packet) SetTID(tid int) {
	if p.Family == FESL {
		copy(p.Header[5:8], int2bytes(tid, 3))
		return
	}
	// Theater: strip the existing "\n\x00" tail, append "\nTID=<n>\n\x00".
	trimmed := p.Body
	if len(trimmed) >= 2 && trimmed[len(trimmed)-1] == 0x00 && trimmed[len(trimmed)-2] == '\n' {
		trimmed = trimmed[:len(trimmed)-2]
	}
	tidLine := []byte("\nTID=" + itoa(tid) + "\n\x00")
	p.Body = append(append([]byte{}, trimmed...), tidLine...)
	p.setLengthIndicators()
}

// GetTID returns the transaction id. FESL reads header bytes 5-7.
// Theater scans body lines for a "TID=" entry, returning 0 if none is
// present or it isn't a valid non-negative integer.
func (p *Packet) GetTID() int {
	if p.Family == FESL {
		return bytes2int(p.Header[5:8])
	}
	for _, line := range p.GetDataLines() {
		if len(line) > 4 && string(line[:4]) == "TID=" {
			n, ok := parseUint(line[4:])
			if !ok {
				return 0
			}
			return n
		}
	}
	return 0
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func parseUint(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// SetTransmissionType encodes tt into the header: FESL uses byte 4,
// Theater uses bytes 4-7 (only Request and OKResponse can be set this
// way; ErrorResponse only ever arises on a received packet).
func (p *Packet) SetTransmissionType(tt TransmissionType) {
	if p.Family == FESL {
		var b byte
		switch tt {
		case FeslPing:
			b = 0x00
		case FeslSinglePacketResponse:
			b = 0x80
		case FeslMultiPacketResponse:
			b = 0xb0
		case FeslSinglePacketRequest:
			b = 0xc0
		case FeslMultiPacketRequest:
			b = 0xf0
		}
		p.Header[4] = b
		return
	}
	switch tt {
	case TheaterRequest:
		copy(p.Header[4:8], []byte{'@', 0x00, 0x00, 0x00})
	case TheaterOKResponse:
		copy(p.Header[4:8], []byte{0x00, 0x00, 0x00, 0x00})
	}
}

// GetTransmissionType decodes the header's transmission-type
// discriminator. Returns an error for an unrecognized discriminator;
// callers that need to drain an error body first should validate the
// header before calling this.
func (p *Packet) GetTransmissionType() (TransmissionType, error) {
	if p.Family == FESL {
		switch p.Header[4] {
		case 0x00:
			return FeslPing, nil
		case 0x80:
			return FeslSinglePacketResponse, nil
		case 0xb0:
			return FeslMultiPacketResponse, nil
		case 0xc0:
			return FeslSinglePacketRequest, nil
		case 0xf0:
			return FeslMultiPacketRequest, nil
		default:
			return 0, bferrors.New(bferrors.Protocol, "packet: unknown FESL transmission type")
		}
	}
	b := p.Header[4:8]
	switch {
	case b[0] == '@' && b[1] == 0 && b[2] == 0 && b[3] == 0:
		return TheaterRequest, nil
	case b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] == 0:
		return TheaterOKResponse, nil
	case theaterErrorTags[string(b)]:
		return TheaterErrorResponse, nil
	default:
		return 0, bferrors.New(bferrors.Protocol, "packet: unknown theater transmission type")
	}
}

// TheaterErrorTag returns the 4-byte error tag when GetTransmissionType
// would report TheaterErrorResponse, and ok=false otherwise.
func (p *Packet) TheaterErrorTag() (string, bool) {
	b := string(p.Header[4:8])
	if theaterErrorTags[b] {
		return b, true
	}
	return "", false
}

// ValidateHeader checks header length, a non-zero length indicator, the
// type tag whitelist for the packet's family, and the family-specific
// discriminator shape. It does not check the indicated length against
// the actual body length: see ValidateBody.
func (p *Packet) ValidateHeader() error {
	if len(p.Header) != HeaderLength || bytes2int(p.Header[8:12]) <= 0 {
		return bferrors.New(bferrors.Protocol, "packet: header is not valid")
	}
	tag := string(p.Header[:4])
	if p.Family == FESL {
		b := p.Header[4]
		if !validFeslTags[tag] || (b != 0 && b != 128 && b != 176 && b != 192 && b != 240) {
			return bferrors.New(bferrors.Protocol, "packet: header is not valid")
		}
		return nil
	}
	b4to8 := p.Header[4:8]
	ok := bytes2int(b4to8) == 0 ||
		(b4to8[0] == 64 && bytes2int(b4to8[1:4]) == 0) ||
		theaterErrorTags[string(b4to8)]
	if !validTheaterTags[tag] || !ok {
		return bferrors.New(bferrors.Protocol, "packet: header is not valid")
	}
	return nil
}

// ValidateBody checks the header's indicated total length against the
// actual header+body length read.
func (p *Packet) ValidateBody() error {
	if p.IndicatedLength() != len(p.Header)+len(p.Body) {
		return bferrors.New(bferrors.Protocol, "packet: received packet with invalid body")
	}
	return nil
}

// Validate runs ValidateHeader then ValidateBody.
func (p *Packet) Validate() error {
	if err := p.ValidateHeader(); err != nil {
		return err
	}
	return p.ValidateBody()
}

// GetData returns the body without its trailing \x00 byte, if present.
func (p *Packet) GetData() []byte {
	if len(p.Body) > 0 && p.Body[len(p.Body)-1] == 0x00 {
		return p.Body[:len(p.Body)-1]
	}
	return p.Body
}

// GetDataLines splits GetData on '\n'.
func (p *Packet) GetDataLines() [][]byte {
	data := p.GetData()
	var lines [][]byte
	start := 0
	for i, c := range data {
		if c == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	lines = append(lines, data[start:])
	return lines
}

// Bytes returns the full wire representation: header followed by body.
func (p *Packet) Bytes() []byte {
	out := make([]byte, 0, len(p.Header)+len(p.Body))
	out = append(out, p.Header...)
	out = append(out, p.Body...)
	return out
}
