package theater

import (
	"github.com/cetteup/bfbc2-statsd-go/packet"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

func buildConnPacket(tid int, clientString string) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "PROT", Value: 2},
		{Key: "PROD", Value: clientString},
		{Key: "VERS", Value: "1.0"},
		{Key: "PLAT", Value: "PS3"},
		{Key: "LOCALE", Value: "en_US"},
		{Key: "SDKVERSION", Value: "5.1.2.0.0"},
	}).Bytes()
	return packet.Build(packet.Theater, []byte("CONN"), body, packet.TheaterRequest, tid)
}

func buildUserPacket(tid int, lkey string) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "MAC", Value: "$000000000000"},
		{Key: "SKU", Value: 125170},
		{Key: "LKEY", Value: lkey},
		{Key: "NAME", Value: nil},
	}).Bytes()
	return packet.Build(packet.Theater, []byte("USER"), body, packet.TheaterRequest, tid)
}

// buildPingPacket always replies with a literal TID=0, never the session's
// running transaction counter. packet.Build's tid-setting condition skips
// tid==0 for Theater packets, so SetTID(0) is called explicitly here to
// make sure the TID line is actually emitted.
func buildPingPacket() *packet.Packet {
	p := packet.Build(packet.Theater, []byte("PING"), payload.New(payload.Dict{}).Bytes(), packet.TheaterRequest, 0)
	p.SetTID(0)
	return p
}

func buildLlstPacket(tid int) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "FILTER-FAV-ONLY", Value: 0},
		{Key: "FILTER-NOT-FULL", Value: 0},
		{Key: "FILTER-NOT-PRIVATE", Value: 0},
		{Key: "FILTER-NOT-CLOSED", Value: 0},
		{Key: "FILTER-MIN-SIZE", Value: 0},
		{Key: "FAV-PLAYER", Value: nil},
		{Key: "FAV-GAME", Value: nil},
		{Key: "FAV-PLAYER-UID", Value: nil},
		{Key: "FAV-GAME-UID", Value: nil},
	}).Bytes()
	return packet.Build(packet.Theater, []byte("LLST"), body, packet.TheaterRequest, tid)
}

func buildGlstPacket(tid int, lid int) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "LID", Value: lid},
		{Key: "TYPE", Value: nil},
		{Key: "FILTER-FAV-ONLY", Value: 0},
		{Key: "FILTER-NOT-FULL", Value: 0},
		{Key: "FILTER-NOT-PRIVATE", Value: 0},
		{Key: "FILTER-NOT-CLOSED", Value: 0},
		{Key: "FILTER-MIN-SIZE", Value: 0},
		{Key: "FAV-PLAYER", Value: nil},
		{Key: "FAV-GAME", Value: nil},
		{Key: "FAV-PLAYER-UID", Value: nil},
		{Key: "FAV-GAME-UID", Value: nil},
		{Key: "COUNT", Value: -1},
	}).Bytes()
	return packet.Build(packet.Theater, []byte("GLST"), body, packet.TheaterRequest, tid)
}

// buildGdatPacket builds a GDAT query: callers pass either {LID,GID} to
// look up a specific server, or {UID} to look up a user's current server.
func buildGdatPacket(tid int, idFields payload.Dict) *packet.Packet {
	body := payload.New(idFields).Bytes()
	return packet.Build(packet.Theater, []byte("GDAT"), body, packet.TheaterRequest, tid)
}
