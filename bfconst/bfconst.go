// Package bfconst holds the static, read-only tables the fesl and theater
// clients are configured from: backend endpoints, namespaces, fragment
// sizing and the stats key dictionary. This is data, not code, per the
// "large static data" guidance in spec.md §9.
package bfconst

import "time"

// Platform identifies the game client platform a session authenticates as.
type Platform int

const (
	PlatformPC Platform = iota + 1
	PlatformXbox360
	PlatformPS3
)

func (p Platform) String() string {
	switch p {
	case PlatformPC:
		return "pc"
	case PlatformXbox360:
		return "xbox360"
	case PlatformPS3:
		return "ps3"
	default:
		return "unknown"
	}
}

// Namespace is the logical account realm a lookup/search operates against.
// XBLSub and PS3Sub are the two "legacy" namespaces that select the older
// LookupUserInfo/SearchOwners FESL operations instead of the Nu-prefixed
// ones.
type Namespace string

const (
	NamespaceBattlefield Namespace = "battlefield"
	NamespaceXbox        Namespace = "xbox"
	NamespacePS3         Namespace = "ps3"
	NamespaceCemEAID     Namespace = "cem_ea_id"
	NamespaceXBLSub      Namespace = "XBL_SUB"
	NamespacePS3Sub      Namespace = "PS3_SUB"
)

// IsLegacy reports whether ns selects the legacy LookupUserInfo/SearchOwners
// operations rather than their Nu-prefixed successors.
func (ns Namespace) IsLegacy() bool {
	return ns == NamespaceXBLSub || ns == NamespacePS3Sub
}

// LookupType selects whether a user lookup is keyed by screen name or by
// numeric user id.
type LookupType string

const (
	LookupByName LookupType = "userName"
	LookupByID   LookupType = "userId"
)

// Backend describes a FESL/Theater endpoint for one game title + platform.
// Platform is carried on the struct itself (rather than left implicit in
// the map key) so a Backend value alone is enough to configure a client,
// e.g. to pick the dogtag record's byte order.
type Backend struct {
	Name         string
	Host         string
	Port         int
	ClientString string
	Platform     Platform
}

// Known FESL backends, keyed by (title, platform). Theater endpoints are
// not listed here: they're returned dynamically by FESL's Hello response
// (theaterIp/theaterPort) per spec.md §4.5.1.
var (
	BadCompany2 = map[Platform]Backend{
		PlatformPC:  {Name: "bfbc2-pc", Host: "bfbc2-pc-server.fesl.ea.com", Port: 18321, ClientString: "bfbc2-pc", Platform: PlatformPC},
		PlatformPS3: {Name: "bfbc2-ps3", Host: "bfbc2-ps3-server.fesl.ea.com", Port: 18331, ClientString: "bfbc2-ps3", Platform: PlatformPS3},
	}
	BadCompany = map[Platform]Backend{
		PlatformPS3: {Name: "bfbc-ps3", Host: "bfbc-ps3.fesl.ea.com", Port: 18800, ClientString: "bfbc-360", Platform: PlatformPS3},
	}
	// Rome is the FESL/Theater backend for Battlefield 1943 ("Project Rome").
	// It does not support TLS (see fesl.RomeClient) and exposes a reduced
	// operation set.
	Rome = map[Platform]Backend{
		PlatformPC:  {Name: "rome-pc", Host: "beach-ps3-server.fesl.ea.com", Port: 18331, ClientString: "bf1943-pc", Platform: PlatformPC},
		PlatformPS3: {Name: "rome-ps3", Host: "beach-ps3-server.fesl.ea.com", Port: 18331, ClientString: "beach-ps3", Platform: PlatformPS3},
	}
)

// DNSOverrides maps a subset of backend hostnames to fixed IPs for
// environments where public DNS no longer resolves these (now defunct)
// EA hostnames. Consulted by transport.resolve before falling back to a
// real lookup.
var DNSOverrides = map[string]string{}

const (
	// FragmentSize is the maximum body size (bytes) FESL will accept in a
	// single packet before a request must be chunked. Also advertised to
	// the server in the Hello payload's fragmentSize field.
	FragmentSize = 8096

	// HeaderLength is the fixed size, in bytes, of both the FESL and
	// Theater packet headers.
	HeaderLength = 12
)

// EpochStart is the reference instant BFBC2 dogtag timestamps are counted
// from (days, as a float32, since this instant).
var EpochStart = time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultLeaderboardKeys are the stat keys requested by GetTopNAndStats
// when the caller does not provide its own key list.
var DefaultLeaderboardKeys = []string{"deaths", "kills", "score", "time"}

// StatsKeys is the full BC2 per-weapon/vehicle/class stats key dictionary,
// used as the default key list for GetStats when the caller doesn't supply
// one. Trimmed here to the commonly queried subset plus a representative
// sample of the per-weapon families. config.Overrides has no stats-key
// setting; GetStats takes a caller-supplied key list instead.
var StatsKeys = []string{
	// Summary
	"accuracy", "deaths", "elo", "form", "games", "kills", "losses",
	"rank", "score", "time", "veteran", "wins", "teamkills",
	// Score breakdown
	"sc_assault", "sc_award", "sc_bonus", "sc_demo", "sc_general",
	"sc_objective", "sc_recon", "sc_squad", "sc_support", "sc_team", "sc_vehicle",
	// Representative per-weapon kill/death/headshot families (suffix _00 =
	// kills, _01 = deaths, following the teacher dictionary's convention)
	"brm1_00", "brm1_01", "brm16_00", "brm16_01", "brm9_00", "brm9_01",
	"c_m16__kw_g", "c_m9__kw_g", "c_mg3__kw_g",
	// Unlocks
	"ul_m249", "ul_m416", "ul_mcs", "ul_medk", "ul_defi",
	// Dogtag-adjacent counters surfaced alongside stats in some clients
	"dogt", "dogr",
}
