package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyChainIncludesAll(t *testing.T) {
	c := NewChain()
	assert.True(t, c.Match("any/file.txt"))
	assert.True(t, c.Empty())

	var nilChain *Chain
	assert.True(t, nilChain.Empty())
	assert.True(t, nilChain.Match("any/file.txt"))
}

func TestExcludePattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("*.log"))

	assert.False(t, c.Match("app.log"))
	assert.False(t, c.Match("sub/debug.log"))
	assert.True(t, c.Match("app.txt"))
}

func TestLeadingSlashIgnored(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("/bin/*.pdb"))

	assert.False(t, c.Match("/bin/game.pdb"))
	assert.True(t, c.Match("/bin/game.exe"))
}

func TestIncludeOverridesExclude(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddInclude("important.log"))
	require.NoError(t, c.AddExclude("*.log"))

	assert.True(t, c.Match("important.log"))
	assert.False(t, c.Match("debug.log"))
}

func TestExcludeIncludeOrder(t *testing.T) {
	// rsync: --exclude '*.log' --include 'important.log'
	// exclude comes first, so important.log is also excluded.
	c := NewChain()
	require.NoError(t, c.AddExclude("*.log"))
	require.NoError(t, c.AddInclude("important.log"))

	assert.False(t, c.Match("important.log"))
	assert.False(t, c.Match("debug.log"))
}

func TestDirOnlyPatternExcludesContents(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("movies/"))

	assert.False(t, c.Match("movies/intro.bik"))
	assert.False(t, c.Match("data/movies/a/b.bik"))
	assert.True(t, c.Match("movies")) // file named "movies" is not excluded
	assert.True(t, c.Match("data/movies.pak"))
}

func TestAnchoredPattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("/root.txt"))

	assert.False(t, c.Match("root.txt"))
	assert.True(t, c.Match("sub/root.txt"))
}

func TestDoubleStarPak(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddInclude("**/*.pak"))
	require.NoError(t, c.AddExclude("*"))

	assert.True(t, c.Match("base.pak"))
	assert.True(t, c.Match("data/maps/level1.pak"))
	assert.False(t, c.Match("readme.md"))
}

func TestAddRules(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddRules([]string{"*.log"}, []string{"keep.log"}))

	assert.True(t, c.Match("keep.log"))
	assert.False(t, c.Match("drop.log"))

	assert.Error(t, c.AddRules([]string{""}, nil))
}

func TestDoubleStarMatchesZeroDirs(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("data/**/*.pak"))

	assert.False(t, c.Match("/data/base.pak"))
	assert.False(t, c.Match("/data/maps/x/base.pak"))
	assert.True(t, c.Match("/other/data/base.pak"))
	assert.True(t, c.Match("/data/readme.md"))
}
