package fesl

import (
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/internal/buffer"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

// DogtagResult is one decoded dogtag record, keyed by the FESL owner
// (user id) that held it. Bronze/Silver/Gold are only populated for Bad
// Company 2 records; Bad Company only reports a single Dogtags total.
type DogtagResult struct {
	UserID    int
	UserName  string
	Timestamp time.Time
	Rank      byte
	Dogtags   int
	Bronze    int
	Silver    int
	Gold      int
	Raw       []byte
}

// formatDogtagsResponse decodes the per-owner binary dogtag record FESL
// returns from GetRecordAsMap. Each map value is percent-encoded, then
// base64-encoded, then the fixed-width binary record itself: 16 bytes of
// (null-padded) player name, a 4-byte float32 day count since
// bfconst.EpochStart, the dogtag counts, and a trailing rank byte. PC
// records are little-endian, PS3 records are big-endian.
func formatDogtagsResponse(values map[string]payload.ParsedValue, platform bfconst.Platform) ([]DogtagResult, error) {
	results := make([]DogtagResult, 0, len(values))
	for key, v := range values {
		raw, ok := v.([]byte)
		if !ok {
			return nil, bferrors.New(bferrors.Protocol, "fesl: dogtag value is not raw bytes")
		}
		record, err := decodeDogtagValue(raw)
		if err != nil {
			return nil, err
		}

		userid, err := strconv.Atoi(key)
		if err != nil {
			return nil, bferrors.Wrap(bferrors.Protocol, "fesl: dogtag owner key is not numeric", err)
		}

		endian := buffer.LittleEndian
		if platform == bfconst.PlatformPS3 {
			endian = buffer.BigEndian
		}
		buf := buffer.New(record, endian)

		nameRaw, err := buf.Read(16)
		if err != nil {
			return nil, err
		}
		days, err := buf.ReadFloat()
		if err != nil {
			return nil, err
		}

		result := DogtagResult{
			UserID:    userid,
			UserName:  strings.TrimRight(string(nameRaw), "\x00"),
			Timestamp: bfconst.EpochStart.Add(time.Duration(float64(days) * float64(24*time.Hour))),
			Raw:       record,
		}
		if err := extractDogtags(buf, &result); err != nil {
			return nil, err
		}

		rank, err := buf.ReadUchar()
		if err != nil {
			return nil, err
		}
		result.Rank = rank

		results = append(results, result)
	}
	return results, nil
}

// extractDogtags reads the dogtag count field(s), whose width (and hence
// meaning) is determined by how many bytes remain: Bad Company only ever
// tracked a single total, Bad Company 2 splits it into bronze/silver/gold.
func extractDogtags(buf *buffer.Buffer, result *DogtagResult) error {
	switch buf.Remaining() {
	case 4:
		total, err := buf.ReadUshort()
		if err != nil {
			return err
		}
		result.Dogtags = int(total)
		return nil
	case 8:
		gold, err := buf.ReadUshort()
		if err != nil {
			return err
		}
		silver, err := buf.ReadUshort()
		if err != nil {
			return err
		}
		bronze, err := buf.ReadUshort()
		if err != nil {
			return err
		}
		result.Gold, result.Silver, result.Bronze = int(gold), int(silver), int(bronze)
		result.Dogtags = result.Gold + result.Silver + result.Bronze
		return nil
	default:
		return bferrors.New(bferrors.Protocol, "fesl: dogtag record has an unexpected remaining length")
	}
}

func decodeDogtagValue(raw []byte) ([]byte, error) {
	unquoted, err := url.QueryUnescape(string(raw))
	if err != nil {
		return nil, bferrors.Wrap(bferrors.Protocol, "fesl: invalid percent-encoding in dogtag value", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(unquoted)
	if err != nil {
		return nil, bferrors.Wrap(bferrors.Protocol, "fesl: invalid base64 in dogtag value", err)
	}
	return decoded, nil
}
