package selene

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	mu       sync.Mutex
	requests []Request
	output   string
	err      error
}

func (f *fakeTool) Run(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.output, f.err
}

func TestGateQuery(t *testing.T) {
	g := &Gate{}
	require.NoError(t, g.Load(context.Background(), func(context.Context) (Capabilities, error) {
		return Capabilities{
			FeatureValidateConfig: {Version: "1.2.0"},
			"future":              {Version: "2.0.0"},
			"broken":              {Version: "not a version"},
		}, nil
	}))

	c, ok := g.Query(FeatureValidateConfig, ValidateConfigRange)
	require.True(t, ok)
	require.Equal(t, "1.2.0", c.Version)

	_, ok = g.Query("future", ValidateConfigRange)
	require.False(t, ok)
	_, ok = g.Query("broken", ValidateConfigRange)
	require.False(t, ok)
	_, ok = g.Query("missing", ValidateConfigRange)
	require.False(t, ok)
	_, ok = g.Query(FeatureValidateConfig, "not a range")
	require.False(t, ok)
}

func TestGateLoadsOnce(t *testing.T) {
	g := &Gate{}
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (Capabilities, error) {
		calls.Add(1)
		<-release
		return Capabilities{FeatureValidateConfig: {Version: "1.0.0"}}, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.Load(context.Background(), fetch))
		}()
	}
	close(release)
	wg.Wait()
	require.NoError(t, g.Load(context.Background(), fetch))

	require.EqualValues(t, 1, calls.Load())
	require.True(t, g.Loaded())
}

func TestGateFailedFetchStaysEmpty(t *testing.T) {
	g := &Gate{}
	calls := 0
	fetch := func(context.Context) (Capabilities, error) {
		calls++
		return nil, errors.New("unrecognized subcommand")
	}
	require.Error(t, g.Load(context.Background(), fetch))
	require.NoError(t, g.Load(context.Background(), fetch))
	require.Equal(t, 1, calls)

	_, ok := g.Query(FeatureValidateConfig, ValidateConfigRange)
	require.False(t, ok)
}

func TestGateReset(t *testing.T) {
	g := &Gate{}
	version := "0.9.0"
	fetch := func(context.Context) (Capabilities, error) {
		return Capabilities{FeatureValidateConfig: {Version: version}}, nil
	}
	require.NoError(t, g.Load(context.Background(), fetch))
	_, ok := g.Query(FeatureValidateConfig, ValidateConfigRange)
	require.False(t, ok)

	g.Reset()
	require.False(t, g.Loaded())
	version = "1.0.0"
	require.NoError(t, g.Load(context.Background(), fetch))
	_, ok = g.Query(FeatureValidateConfig, ValidateConfigRange)
	require.True(t, ok)
}

func TestFetchCapabilities(t *testing.T) {
	tool := &fakeTool{output: `{"type":"Capabilities","validateConfig":{"version":"1.0.0"}}` + "\n"}
	caps, err := FetchCapabilities(context.Background(), tool, "/work")
	require.NoError(t, err)
	require.Equal(t, Capabilities{FeatureValidateConfig: {Version: "1.0.0"}}, caps)
	require.Equal(t, []Request{{
		Args:   []string{"capabilities", "--display-style=json2"},
		Dir:    "/work",
		Expect: ExpectSuccess,
	}}, tool.requests)

	tool = &fakeTool{output: "\n"}
	caps, err = FetchCapabilities(context.Background(), tool, "")
	require.NoError(t, err)
	require.Empty(t, caps)
}

func TestAuthorizePlugins(t *testing.T) {
	tool := &fakeTool{}
	require.NoError(t, AuthorizePlugins(context.Background(), tool, "/proj", false))
	require.NoError(t, AuthorizePlugins(context.Background(), tool, "/proj", true))
	require.Equal(t, []string{"plugin-authorization", "/proj"}, tool.requests[0].Args)
	require.Equal(t, []string{"plugin-authorization", "/proj", "--block"}, tool.requests[1].Args)
}
