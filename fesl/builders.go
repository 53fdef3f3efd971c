package fesl

import (
	"encoding/base64"
	"net/url"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/packet"
	"github.com/cetteup/bfbc2-statsd-go/payload"
)

func buildHelloPacket(tid int, clientString string) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: "Hello"},
		{Key: "clientString", Value: clientString},
		{Key: "sku", Value: "PC"},
		{Key: "locale", Value: "en_US"},
		{Key: "clientPlatform", Value: "PC"},
		{Key: "clientVersion", Value: "2.0"},
		{Key: "SDKVersion", Value: "5.1.2.0.0"},
		{Key: "protocolVersion", Value: "2.0"},
		{Key: "fragmentSize", Value: bfconst.FragmentSize},
		{Key: "clientType", Value: "server"},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("fsys"), body, packet.FeslSinglePacketRequest, tid)
}

func buildMemCheckPacket() *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: "MemCheck"},
		{Key: "result", Value: nil},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("fsys"), body, packet.FeslSinglePacketResponse, 0)
}

func buildPingPacket() *packet.Packet {
	body := payload.New(payload.Dict{{Key: "TXN", Value: "Ping"}}).Bytes()
	return packet.Build(packet.FESL, []byte("fsys"), body, packet.FeslSinglePacketResponse, 0)
}

func buildLoginPacket(tid int, username, password string) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: "Login"},
		{Key: "returnEncryptedInfo", Value: 0},
		{Key: "name", Value: username},
		{Key: "password", Value: password},
		{Key: "macAddr", Value: "$000000000000"},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("acct"), body, packet.FeslSinglePacketRequest, tid)
}

// buildRomeLoginPacket builds Project Rome's NuLogin request: an
// email-keyed account login rather than the screen-name Login the other
// backends use.
func buildRomeLoginPacket(tid int, email, password string) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: "NuLogin"},
		{Key: "returnEncryptedInfo", Value: 0},
		{Key: "nuid", Value: email},
		{Key: "password", Value: password},
		{Key: "macAddr", Value: "$000000000000"},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("acct"), body, packet.FeslSinglePacketRequest, tid)
}

// buildLoginPersonaPacket builds the persona login Project Rome requires
// after the account-level NuLogin before a Theater lkey becomes available.
func buildLoginPersonaPacket(tid int, personaName string) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: "NuLoginPersona"},
		{Key: "name", Value: personaName},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("acct"), body, packet.FeslSinglePacketRequest, tid)
}

func buildLogoutPacket(tid int) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: "Goodbye"},
		{Key: "reason", Value: "GOODBYE_CLIENT_NORMAL"},
		{Key: "message", Value: `"Disconnected via front-end"`},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("fsys"), body, packet.FeslSinglePacketRequest, tid)
}

// buildUserLookupPacket uses LookupUserInfo instead of NuLookupUserInfo for
// the two legacy namespaces.
func buildUserLookupPacket(tid int, identifiers []string, namespace bfconst.Namespace, lookupType bfconst.LookupType) *packet.Packet {
	lookups := make(payload.List, 0, len(identifiers))
	for _, id := range identifiers {
		lookups = append(lookups, payload.Dict{
			{Key: string(lookupType), Value: id},
			{Key: "namespace", Value: string(namespace)},
		})
	}

	txn := "NuLookupUserInfo"
	if namespace.IsLegacy() {
		txn = "LookupUserInfo"
	}
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: txn},
		{Key: "userInfo", Value: lookups},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("acct"), body, packet.FeslSinglePacketRequest, tid)
}

// buildSearchPacket uses SearchOwners instead of NuSearchOwners (and
// requests user ids back) for the two legacy namespaces.
func buildSearchPacket(tid int, screenName string, namespace bfconst.Namespace) *packet.Packet {
	txn := "NuSearchOwners"
	retrieveUserIds := 0
	if namespace.IsLegacy() {
		txn = "SearchOwners"
		retrieveUserIds = 1
	}
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: txn},
		{Key: "screenName", Value: screenName},
		{Key: "searchType", Value: 1},
		{Key: "retrieveUserIds", Value: retrieveUserIds},
		{Key: "nameSpaceId", Value: string(namespace)},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("acct"), body, packet.FeslSinglePacketRequest, tid)
}

func buildLeaderboardQueryPacket(tid, minRank, maxRank int, sortBy string, keys []string) *packet.Packet {
	keyList := make(payload.List, len(keys))
	for i, k := range keys {
		keyList[i] = k
	}
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: "GetTopNAndStats"},
		{Key: "key", Value: sortBy},
		{Key: "ownerType", Value: 1},
		{Key: "minRank", Value: minRank},
		{Key: "maxRank", Value: maxRank},
		{Key: "periodId", Value: 0},
		{Key: "periodPast", Value: 0},
		{Key: "rankOrder", Value: 0},
		{Key: "keys", Value: keyList},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("rank"), body, packet.FeslSinglePacketRequest, tid)
}

func buildDogtagQueryPacket(tid, userid int) *packet.Packet {
	body := payload.New(payload.Dict{
		{Key: "TXN", Value: "GetRecordAsMap"},
		{Key: "recordName", Value: "dogtags"},
		{Key: "owner", Value: userid},
	}).Bytes()
	return packet.Build(packet.FESL, []byte("recp"), body, packet.FeslSinglePacketRequest, tid)
}

// buildStatsQueryPackets returns a single request packet when the query
// fits within bfconst.FragmentSize, or a sequence of MultiPacketRequest
// chunks (base64 encoded, then percent-encoded, then split) otherwise.
func buildStatsQueryPackets(tid, userid int, keys []string) []*packet.Packet {
	keyList := make(payload.List, len(keys))
	for i, k := range keys {
		keyList[i] = k
	}
	raw := payload.New(payload.Dict{
		{Key: "TXN", Value: "GetStats"},
		{Key: "owner", Value: userid},
		{Key: "ownerType", Value: 1},
		{Key: "periodId", Value: 0},
		{Key: "periodPast", Value: 0},
		{Key: "keys", Value: keyList},
	}).Bytes()

	if len(raw) <= bfconst.FragmentSize {
		return []*packet.Packet{
			packet.Build(packet.FESL, []byte("rank"), raw, packet.FeslSinglePacketRequest, tid),
		}
	}

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(raw)+1))
	base64.StdEncoding.Encode(encoded, append(append([]byte(nil), raw...), 0x00))
	size := len(encoded)
	quoted := []byte(url.QueryEscape(string(encoded)))

	var chunks []*packet.Packet
	for i := 0; i < len(quoted); i += bfconst.FragmentSize {
		end := i + bfconst.FragmentSize
		if end > len(quoted) {
			end = len(quoted)
		}
		body := payload.New(payload.Dict{
			{Key: "size", Value: size},
			{Key: "data", Value: quoted[i:end]},
		}).Bytes()
		chunks = append(chunks, packet.Build(packet.FESL, []byte("rank"), body, packet.FeslMultiPacketRequest, tid))
	}
	return chunks
}
