package selene

import (
	"context"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/singleflight"

	"github.com/corymhall/selenelsp/debug"
)

const (
	// FeatureValidateConfig is the capability for `validate-config --stdin`.
	FeatureValidateConfig = "validateConfig"
	// ValidateConfigRange is the version range the server speaks.
	ValidateConfigRange = "^1.0.0"
)

// Gate caches the capability set reported by the selene binary. It is
// fetched at most once until Reset is called.
type Gate struct {
	group singleflight.Group

	mu     sync.RWMutex
	gen    int
	loaded bool
	caps   Capabilities
}

// Load runs fetch unless a previous Load for the current generation has
// already completed. Concurrent callers share one fetch. A failed fetch
// still counts as loaded and leaves the set empty.
func (g *Gate) Load(ctx context.Context, fetch func(context.Context) (Capabilities, error)) error {
	g.mu.RLock()
	loaded, gen := g.loaded, g.gen
	g.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err, _ := g.group.Do(fmt.Sprint(gen), func() (any, error) {
		g.mu.RLock()
		done := g.loaded || g.gen != gen
		g.mu.RUnlock()
		if done {
			return nil, nil
		}

		caps, err := fetch(ctx)

		g.mu.Lock()
		defer g.mu.Unlock()
		if g.gen != gen {
			// Reset while fetching; the result belongs to an older binary.
			return nil, err
		}
		g.loaded = true
		if err == nil {
			g.caps = caps
		}
		return nil, err
	})
	return err
}

// Reset forgets the cached set, typically after the binary changed.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.loaded = false
	g.caps = nil
}

// Loaded reports whether the current generation has been fetched.
func (g *Gate) Loaded() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loaded
}

// Query reports whether feature is present at a version inside constraint.
// Unknown features, unparsable versions and unsatisfied ranges all answer
// false.
func (g *Gate) Query(feature, constraint string) (Capability, bool) {
	g.mu.RLock()
	c, ok := g.caps[feature]
	g.mu.RUnlock()
	if !ok {
		return Capability{}, false
	}
	want, err := semver.NewConstraint(constraint)
	if err != nil {
		return Capability{}, false
	}
	have, err := semver.NewVersion(c.Version)
	if err != nil {
		return Capability{}, false
	}
	if !want.Check(have) {
		return Capability{}, false
	}
	return c, true
}

// FetchCapabilities asks the binary for its capability set. Binaries that
// predate the subcommand produce no Capabilities record, which yields an
// empty set.
func FetchCapabilities(ctx context.Context, tool Tool, dir string) (Capabilities, error) {
	out, err := tool.Run(ctx, Request{
		Args:   []string{"capabilities", "--display-style=json2"},
		Dir:    dir,
		Expect: ExpectSuccess,
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range ParseOutput(ctx, out) {
		if caps, ok := rec.(Capabilities); ok {
			debug.Debug.Log(ctx, "selene capabilities", "count", len(caps))
			return caps, nil
		}
	}
	return Capabilities{}, nil
}

// AuthorizePlugins records the user's decision about running the plugins
// configured at path. block denies them for the project.
func AuthorizePlugins(ctx context.Context, tool Tool, path string, block bool) error {
	args := []string{"plugin-authorization", path}
	if block {
		args = append(args, "--block")
	}
	_, err := tool.Run(ctx, Request{Args: args, Expect: ExpectSuccess})
	return err
}
