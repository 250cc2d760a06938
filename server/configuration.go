package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/settings"
)

const configurationSection = "selene"

func (s *server) DidChangeConfiguration(ctx context.Context, params *lsp.DidChangeConfigurationParams) error {
	if isEmptySettings(params.Settings) {
		// Pull based clients only signal that something changed.
		s.goBackground(s.pullConfiguration)
		return nil
	}
	s.changeSettings(ctx, params.Settings)
	return nil
}

func isEmptySettings(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}":
		return true
	}
	return false
}

// pullConfiguration asks the client for the selene section. It calls back
// into the client, so it must not run on the connection's goroutine.
func (s *server) pullConfiguration(ctx context.Context) {
	s.mu.Lock()
	supported := s.supportsConfiguration
	s.mu.Unlock()
	if !supported {
		return
	}

	section := configurationSection
	result, err := s.client.Configuration(ctx, &lsp.ParamConfiguration{
		Items: []lsp.ConfigurationItem{{Section: &section}},
	})
	if err != nil {
		debug.LogError(ctx, "workspace/configuration", err)
		return
	}
	if len(result) == 0 || result[0] == nil {
		return
	}
	raw, err := json.Marshal(result[0])
	if err != nil {
		debug.LogError(ctx, "encoding configuration", err)
		return
	}
	s.changeSettings(ctx, raw)
}

// changeSettings merges a settings push into the current settings and
// applies what changed. Invalid pushes are reported and ignored.
func (s *server) changeSettings(ctx context.Context, raw json.RawMessage) {
	s.mu.Lock()
	prev := s.settings
	next, err := prev.Merge(raw)
	if err == nil {
		s.settings = next
	}
	s.mu.Unlock()

	if err != nil {
		debug.LogError(ctx, "ignoring settings", err)
		s.showMessage(ctx, lsp.MessageTypeWarning, fmt.Sprintf("Ignoring selene settings: %v", err))
		return
	}
	s.settingsChanged(prev, next)
}

func (s *server) settingsChanged(prev, next settings.Settings) {
	initialized := s.initialized()
	if prev.SelenePath != next.SelenePath {
		s.tool.SetSelenePath(next.SelenePath)
		s.gate.Reset()
		s.toolRestored()
		if initialized {
			s.goBackground(func(ctx context.Context) {
				s.loadCapabilities(ctx)
				s.watchBinary(ctx)
			})
		}
	}
	// Before initialized the policy is picked up by Initialized itself.
	if initialized && prev.Policy() != next.Policy() {
		s.scheduler.Configure(next.Policy())
	}
}
