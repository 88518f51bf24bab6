package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sections = []string{"rpc_endpoints", "etherscan"}
	excluded = []string{"localhost"}
)

const foundryTOML = `
[profile.default]
solc = "0.8.26"

[rpc_endpoints]
arbitrum = "${ARBITRUM_RPC_URL}"
base = "https://mainnet.base.org"
localhost = "http://localhost:8545"
mainnet = "${MAINNET_RPC_URL}"

[etherscan]
arbitrum = { key = "${ARBISCAN_API_KEY}" }
gnosis = { key = "${GNOSISSCAN_API_KEY}", url = "https://api.gnosisscan.io/api" }
localhost = { key = "none" }
`

func TestParseUnionsSectionsWithoutDuplicates(t *testing.T) {
	r, err := Parse([]byte(foundryTOML), sections, excluded)
	require.NoError(t, err)

	assert.Equal(t, []string{"arbitrum", "base", "mainnet", "gnosis"}, r.Names())
	assert.Equal(t, 4, r.Len())
	assert.True(t, r.Contains("gnosis"))
	assert.False(t, r.Contains("localhost"))
}

func TestParseSkipsMissingSections(t *testing.T) {
	r, err := Parse([]byte("[rpc_endpoints]\nsepolia = \"x\"\n"), sections, excluded)
	require.NoError(t, err)

	assert.Equal(t, []string{"sepolia"}, r.Names())
}

func TestParseRejectsInvalidTOML(t *testing.T) {
	_, err := Parse([]byte("[rpc_endpoints\nbroken"), sections, excluded)
	require.Error(t, err)
}

func TestLoadReturnsEmptyRegistryOnFailure(t *testing.T) {
	dir := t.TempDir()

	missing := Load(filepath.Join(dir, "foundry.toml"), sections, excluded)
	assert.Equal(t, 0, missing.Len())

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("= nope"), 0644))
	assert.Equal(t, 0, Load(broken, sections, excluded).Len())
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foundry.toml")
	require.NoError(t, os.WriteFile(path, []byte(foundryTOML), 0644))

	r := Load(path, sections, excluded)
	assert.ElementsMatch(t, []string{"arbitrum", "base", "mainnet", "gnosis"}, r.Names())
}

func TestNamesReturnsCopy(t *testing.T) {
	r := New("base", "base", "mainnet")
	names := r.Names()
	names[0] = "mutated"

	assert.Equal(t, []string{"base", "mainnet"}, r.Names())
}
