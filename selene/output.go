package selene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/corymhall/selenelsp/debug"
)

// ErrMalformedRecord is returned by [ParseLine] for lines that are not a
// JSON object.
var ErrMalformedRecord = errors.New("malformed selene output")

// RecordType is the "type" tag of a --display-style=json2 line.
type RecordType string

const (
	TypeDiagnostic       RecordType = "Diagnostic"
	TypeInvalidConfig    RecordType = "InvalidConfig"
	TypeCapabilities     RecordType = "Capabilities"
	TypePluginsNotLoaded RecordType = "PluginsNotLoaded"
)

// Record is one decoded line of selene output. The set of implementations
// is closed: *Diagnostic, *InvalidConfig, Capabilities and
// *PluginsNotLoaded.
type Record interface {
	Type() RecordType
	isRecord()
}

type Severity string

const (
	SeverityBug     Severity = "Bug"
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
	SeverityNote    Severity = "Note"
	SeverityHelp    Severity = "Help"
)

// Span is a pair of byte offsets into the linted text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Label struct {
	Message string `json:"message"`
	Span    Span   `json:"span"`
}

// Diagnostic is one lint finding. Code is empty for findings that are not
// tied to a lint, such as parse errors.
type Diagnostic struct {
	Code            string   `json:"code"`
	Message         string   `json:"message"`
	Severity        Severity `json:"severity"`
	Notes           []string `json:"notes"`
	PrimaryLabel    Label    `json:"primary_label"`
	SecondaryLabels []Label  `json:"secondary_labels"`
}

// StdinSource is the InvalidConfig source selene reports for content it
// read from standard input.
const StdinSource = "-"

// Location is the legacy line-only position of an InvalidConfig record.
type Location struct {
	Line int `json:"line"`
}

type InvalidConfig struct {
	Error    string    `json:"error"`
	Source   string    `json:"source"`
	Range    *Span     `json:"range,omitempty"`
	Location *Location `json:"location,omitempty"`
}

type Capability struct {
	Version string `json:"version"`
}

// Capabilities maps feature names to the version selene supports them at.
type Capabilities map[string]Capability

// PluginsNotLoaded is emitted when selene refused to run plugins for a
// project that has not been authorized.
type PluginsNotLoaded struct {
	CanonFilename     string `json:"canon_filename"`
	AuthorizationPath string `json:"authorization_path,omitempty"`
}

func (*Diagnostic) Type() RecordType       { return TypeDiagnostic }
func (*InvalidConfig) Type() RecordType    { return TypeInvalidConfig }
func (Capabilities) Type() RecordType      { return TypeCapabilities }
func (*PluginsNotLoaded) Type() RecordType { return TypePluginsNotLoaded }

func (*Diagnostic) isRecord()       {}
func (*InvalidConfig) isRecord()    {}
func (Capabilities) isRecord()      {}
func (*PluginsNotLoaded) isRecord() {}

// ParseLine decodes a single line of output. Blank lines and records with a
// type this version does not know about decode to a nil Record and a nil
// error. Anything that is not a JSON object, including valid JSON such as
// an array or a string, is an [ErrMalformedRecord].
func ParseLine(line string) (Record, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	data := []byte(line)

	var header struct {
		Type RecordType `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	var rec Record
	switch header.Type {
	case TypeDiagnostic:
		rec = &Diagnostic{}
	case TypeInvalidConfig:
		rec = &InvalidConfig{}
	case TypePluginsNotLoaded:
		rec = &PluginsNotLoaded{}
	case TypeCapabilities:
		return parseCapabilities(data)
	default:
		return nil, nil
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, header.Type, err)
	}
	return rec, nil
}

// parseCapabilities decodes the flattened {"type": ..., "<feature>": {...}}
// form. Fields that are not capability objects are skipped.
func parseCapabilities(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, TypeCapabilities, err)
	}
	caps := Capabilities{}
	for name, value := range raw {
		if name == "type" {
			continue
		}
		var c Capability
		if err := json.Unmarshal(value, &c); err != nil || c.Version == "" {
			continue
		}
		caps[name] = c
	}
	return caps, nil
}

// ParseOutput decodes every line of a selene run. Malformed lines are logged
// and skipped so that one bad line does not lose the rest of the run.
func ParseOutput(ctx context.Context, output string) []Record {
	var records []Record
	for _, line := range strings.Split(output, "\n") {
		rec, err := ParseLine(line)
		if err != nil {
			debug.Warning.Log(ctx, "couldn't parse output", "line", line, "error", err)
			continue
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records
}
