package deploy

import (
	"testing"

	"github.com/sablier-labs/v2-core/internal/request"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree() (*cobra.Command, *cobra.Command) {
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().String("config", "", "")
	root.PersistentFlags().String("log-level", "", "")

	child := &cobra.Command{Use: "deploy", DisableFlagParsing: true, RunE: func(*cobra.Command, []string) error { return nil }}
	root.AddCommand(child)
	return root, child
}

func TestSplitRootFlags(t *testing.T) {
	root, child := newTree()

	rest, err := SplitRootFlags(child, []string{"--config", "deployer.yaml", "--broadcast", "base", "--log-level=debug", "--verbose"})
	require.NoError(t, err)

	assert.Equal(t, []string{"--broadcast", "base", "--verbose"}, rest)
	assert.Equal(t, "deployer.yaml", root.PersistentFlags().Lookup("config").Value.String())
	assert.Equal(t, "debug", root.PersistentFlags().Lookup("log-level").Value.String())
	assert.True(t, root.PersistentFlags().Lookup("config").Changed)
}

func TestSplitRootFlagsMissingValue(t *testing.T) {
	_, child := newTree()

	_, err := SplitRootFlags(child, []string{"base", "--config"})
	require.ErrorIs(t, err, request.ErrMissingValue)
}

func TestSplitRootFlagsLeavesDeployTokens(t *testing.T) {
	_, child := newTree()

	args := []string{"--all", "--gas-price", "30gwei", "arbitrum"}
	rest, err := SplitRootFlags(child, args)
	require.NoError(t, err)
	assert.Equal(t, args, rest)
}
