package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hexops/autogold/v2"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(`
std = "lua51"
exclude = ["vendor/**", "*.spec.lua"]

[rules]
unused_variable = "allow"
`), 0o644))

	c, err := LoadConfig(dir)
	require.NoError(t, err)
	autogold.Expect(&Config{Std: "lua51", Exclude: []string{"vendor/**", "*.spec.lua"}}).Equal(t, c)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(dir)
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("std = \n"), 0o644))
	_, err = LoadConfig(dir)
	require.ErrorContains(t, err, "parsing")
}

func TestExcludes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix paths")
	}
	c := &Config{Exclude: []string{"vendor/**", "*.spec.lua", "/abs/[", "/tmp/generated/*.lua"}}
	root := "/proj"

	require.True(t, c.Excludes(root, "/proj/vendor/lib/x.lua"))
	require.True(t, c.Excludes(root, "/proj/init.spec.lua"))
	require.True(t, c.Excludes(root, "/tmp/generated/a.lua"))
	require.False(t, c.Excludes(root, "/proj/src/init.spec.lua"))
	require.False(t, c.Excludes(root, "/proj/init.lua"))
	require.False(t, c.Excludes(root, "/other/vendor/x.lua"))

	var none *Config
	require.False(t, none.Excludes(root, "/proj/vendor/x.lua"))
}

func TestAddRobloxStd(t *testing.T) {
	autogold.Expect("std = \"roblox\"\n").Equal(t, AddRobloxStd(""))
	autogold.Expect("std = \"roblox\"\n[rules]\nshadowing = \"allow\"").Equal(t, AddRobloxStd("[rules]\nshadowing = \"allow\""))
	autogold.Expect("std = \"roblox+lua51\"\n\n[config]").Equal(t, AddRobloxStd("std = \"lua51\"\n\n[config]"))
	autogold.Expect("std = \"roblox+testez+lua51\"").Equal(t, AddRobloxStd("std=\"testez+lua51\""))
	autogold.Expect("std = \"roblox+lua51\"").Equal(t, AddRobloxStd("std = \"roblox+lua51\""))
	// A std line we cannot understand is left alone.
	autogold.Expect("std = lua51").Equal(t, AddRobloxStd("std = lua51"))
}

func TestEnableRoblox(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnableRoblox(dir))
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	require.NoError(t, err)
	require.Equal(t, "std = \"roblox\"\n", string(data))

	require.NoError(t, EnableRoblox(dir))
	data, err = os.ReadFile(filepath.Join(dir, ConfigFile))
	require.NoError(t, err)
	require.Equal(t, "std = \"roblox\"\n", string(data))
}
