package bfconst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceIsLegacy(t *testing.T) {
	assert.True(t, NamespaceXBLSub.IsLegacy())
	assert.True(t, NamespacePS3Sub.IsLegacy())
	assert.False(t, NamespaceBattlefield.IsLegacy())
	assert.False(t, NamespaceCemEAID.IsLegacy())
}

func TestPlatformString(t *testing.T) {
	assert.Equal(t, "pc", PlatformPC.String())
	assert.Equal(t, "xbox360", PlatformXbox360.String())
	assert.Equal(t, "ps3", PlatformPS3.String())
	assert.Equal(t, "unknown", Platform(0).String())
}

func TestBackendTablesPopulated(t *testing.T) {
	pc, ok := BadCompany2[PlatformPC]
	assert.True(t, ok)
	assert.Equal(t, "bfbc2-pc-server.fesl.ea.com", pc.Host)
	assert.Equal(t, 18321, pc.Port)

	_, ok = BadCompany2[PlatformXbox360]
	assert.False(t, ok, "BC2 never shipped on Xbox360")

	romePC, ok := Rome[PlatformPC]
	assert.True(t, ok)
	assert.NotEmpty(t, romePC.ClientString)
}

func TestStatsKeyDefaults(t *testing.T) {
	assert.NotEmpty(t, StatsKeys)
	assert.Contains(t, StatsKeys, "kills")
	assert.Contains(t, StatsKeys, "deaths")
	assert.ElementsMatch(t, []string{"deaths", "kills", "score", "time"}, DefaultLeaderboardKeys)
}
