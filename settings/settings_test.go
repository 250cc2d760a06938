package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hexops/autogold/v2"
	"github.com/stretchr/testify/require"

	"github.com/corymhall/selenelsp/trigger"
)

func TestDefault(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	require.Equal(t, trigger.Policy{Kind: trigger.OnSave, IdleDelay: time.Second}, s.Policy())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selenelsp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run: onIdle\nidleDelay: 250\n"), 0o600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	autogold.Expect(Settings{Run: "onIdle", IdleDelay: 250, WarnRoblox: true}).Equal(t, s)
	require.Equal(t, trigger.Policy{Kind: trigger.OnIdle, IdleDelay: 250 * time.Millisecond}, s.Policy())
}

func TestLoadFileInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("run: whenever\n"), 0o600))
	s, err := LoadFile(bad)
	require.ErrorIs(t, err, ErrInvalid)
	require.Equal(t, Default(), s)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("run: [\n"), 0o600))
	_, err = LoadFile(broken)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestMerge(t *testing.T) {
	base := Default()

	s, err := base.Merge(json.RawMessage(`{"selene":{"run":"onNewLine","warnRoblox":false}}`))
	require.NoError(t, err)
	autogold.Expect(Settings{Run: "onNewLine", IdleDelay: 1000}).Equal(t, s)

	s, err = s.Merge(json.RawMessage(`{"selenePath":"/opt/selene","idleDelay":50}`))
	require.NoError(t, err)
	autogold.Expect(Settings{Run: "onNewLine", IdleDelay: 50, SelenePath: "/opt/selene"}).Equal(t, s)

	same, err := s.Merge(json.RawMessage(`null`))
	require.NoError(t, err)
	require.Equal(t, s, same)

	same, err = s.Merge(nil)
	require.NoError(t, err)
	require.Equal(t, s, same)
}

func TestMergeRejectsInvalid(t *testing.T) {
	base := Default()
	for _, raw := range []string{
		`{"run":"sometimes"}`,
		`{"selene":{"idleDelay":-5}}`,
		`{"idleDelay":"soon"}`,
		`[1]`,
	} {
		s, err := base.Merge(json.RawMessage(raw))
		require.ErrorIs(t, err, ErrInvalid, raw)
		require.Equal(t, base, s, raw)
	}
}
