// Package settings holds the user-facing options of the server.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/corymhall/selenelsp/trigger"
)

var ErrInvalid = errors.New("invalid settings")

// Settings mirrors the "selene" configuration section clients send.
type Settings struct {
	// Run is when documents are linted after they are opened.
	Run string `yaml:"run" json:"run"`
	// IdleDelay is the onIdle debounce in milliseconds.
	IdleDelay int `yaml:"idleDelay" json:"idleDelay"`
	// SelenePath overrides discovery of the selene binary.
	SelenePath string `yaml:"selenePath" json:"selenePath"`
	// WarnRoblox offers to switch selene.toml to the roblox standard library
	// when Roblox globals are reported as undefined.
	WarnRoblox bool `yaml:"warnRoblox" json:"warnRoblox"`
}

func Default() Settings {
	return Settings{
		Run:        string(trigger.OnSave),
		IdleDelay:  1000,
		WarnRoblox: true,
	}
}

// LoadFile reads a YAML file of defaults. Keys missing from the file keep
// their built-in values.
func LoadFile(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	if err := s.Validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

// Merge applies a JSON settings push on top of s. Both the bare section and
// one wrapped as {"selene": {...}} are accepted. On error s is returned
// unchanged.
func (s Settings) Merge(raw json.RawMessage) (Settings, error) {
	if len(raw) == 0 {
		return s, nil
	}
	var wrapped struct {
		Selene json.RawMessage `json:"selene"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(wrapped.Selene) > 0 {
		raw = wrapped.Selene
	}
	next := s
	if err := json.Unmarshal(raw, &next); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

func (s Settings) Validate() error {
	if _, err := trigger.ParseKind(s.Run); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if s.IdleDelay < 0 {
		return fmt.Errorf("%w: idleDelay must not be negative, got %d", ErrInvalid, s.IdleDelay)
	}
	return nil
}

// Policy is the scheduler policy for s. It assumes s is valid.
func (s Settings) Policy() trigger.Policy {
	return trigger.Policy{
		Kind:      trigger.Kind(s.Run),
		IdleDelay: time.Duration(s.IdleDelay) * time.Millisecond,
	}
}
