// Package lint turns selene records into annotations positioned on an open
// document.
package lint

import (
	"path/filepath"
	"strings"

	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/offsets"
	"github.com/corymhall/selenelsp/selene"
)

// Document is the text an annotation is positioned against.
type Document interface {
	URI() lsp.DocumentURI
	Text() string
	// PositionAt converts a UTF-16 offset into a position, clamping to the
	// document.
	PositionAt(offset int) lsp.Position
	LineRange(line int) lsp.Range
	FullRange() lsp.Range
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

type Tag int

const (
	// TagUnnecessary marks unused code, which editors render faded.
	TagUnnecessary Tag = iota + 1
)

type Related struct {
	Message string
	URI     lsp.DocumentURI
	Range   lsp.Range
}

// An Annotation is one diagnostic ready to publish for a document.
type Annotation struct {
	Range    lsp.Range
	Message  string
	Severity Severity
	Source   string
	Tags     []Tag
	Related  []Related
}

// codeTags is the fixed lookup of lint codes that carry presentational tags.
var codeTags = map[string][]Tag{
	"unused_variable": {TagUnnecessary},
}

const notePrefix = "note: "

// Offsets collects every byte offset referenced by the labels of diags so
// that a run can resolve them with a single offsets.Resolve call.
func Offsets(diags []*selene.Diagnostic) map[int]struct{} {
	set := make(map[int]struct{})
	add := func(s selene.Span) {
		set[s.Start] = struct{}{}
		set[s.End] = struct{}{}
	}
	for _, d := range diags {
		add(d.PrimaryLabel.Span)
		for _, l := range d.SecondaryLabels {
			add(l.Span)
		}
	}
	return set
}

// TranslateDiagnostics returns one annotation per diagnostic, in order.
func TranslateDiagnostics(doc Document, diags []*selene.Diagnostic, m offsets.Map) []Annotation {
	annotations := make([]Annotation, 0, len(diags))
	for _, d := range diags {
		a := Annotation{
			Range:    spanRange(doc, d.PrimaryLabel.Span, m),
			Message:  composeMessage(d),
			Severity: severityOf(d.Severity),
			Source:   source(d.Code),
			Tags:     codeTags[d.Code],
		}
		for _, l := range d.SecondaryLabels {
			a.Related = append(a.Related, Related{
				Message: l.Message,
				URI:     doc.URI(),
				Range:   spanRange(doc, l.Span, m),
			})
		}
		annotations = append(annotations, a)
	}
	return annotations
}

func composeMessage(d *selene.Diagnostic) string {
	var b strings.Builder
	b.WriteString(d.Message)
	if d.PrimaryLabel.Message != "" {
		b.WriteByte('\n')
		b.WriteString(d.PrimaryLabel.Message)
	}
	for _, note := range d.Notes {
		b.WriteByte('\n')
		b.WriteString(notePrefix)
		b.WriteString(note)
	}
	return b.String()
}

// severityOf folds selene's severities onto the two annotation severities.
func severityOf(s selene.Severity) Severity {
	switch s {
	case selene.SeverityError, selene.SeverityBug:
		return SeverityError
	default:
		return SeverityWarning
	}
}

func source(code string) string {
	if code == "" {
		return "selene"
	}
	return "selene::" + code
}

func spanRange(doc Document, s selene.Span, m offsets.Map) lsp.Range {
	return lsp.Range{
		Start: doc.PositionAt(m.Lookup(s.Start)),
		End:   doc.PositionAt(m.Lookup(s.End)),
	}
}

// TranslateInvalidConfig positions a validate-config error on doc. It
// reports false when the record is about another file. Relative sources are
// resolved against workspaceDir.
func TranslateInvalidConfig(doc Document, rec *selene.InvalidConfig, workspaceDir string) (Annotation, bool) {
	if !appliesTo(doc, rec.Source, workspaceDir) {
		return Annotation{}, false
	}

	var r lsp.Range
	switch {
	case rec.Range != nil:
		m := offsets.Resolve(doc.Text(), map[int]struct{}{
			rec.Range.Start: {},
			rec.Range.End:   {},
		})
		r = spanRange(doc, *rec.Range, m)
	case rec.Location != nil:
		r = doc.LineRange(rec.Location.Line)
	default:
		r = doc.FullRange()
	}
	return Annotation{
		Range:    r,
		Message:  rec.Error,
		Severity: SeverityError,
		Source:   "selene",
	}, true
}

func appliesTo(doc Document, source, workspaceDir string) bool {
	if source == selene.StdinSource {
		return true
	}
	uri := doc.URI()
	if !uri.IsFile() || source == "" {
		return false
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(workspaceDir, source)
	}
	return filepath.Clean(source) == filepath.Clean(uri.Path())
}
