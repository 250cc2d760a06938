package lint

import "github.com/corymhall/selenelsp/lsp"

// ToProtocol converts annotations into LSP diagnostics. A nil or empty
// input yields an empty, non-nil slice so that publishing it clears the
// client's view.
func ToProtocol(annotations []Annotation) []lsp.Diagnostic {
	diags := make([]lsp.Diagnostic, 0, len(annotations))
	for _, a := range annotations {
		d := lsp.Diagnostic{
			Range:    a.Range,
			Severity: lsp.SeverityWarning,
			Source:   a.Source,
			Message:  a.Message,
		}
		if a.Severity == SeverityError {
			d.Severity = lsp.SeverityError
		}
		for _, t := range a.Tags {
			if t == TagUnnecessary {
				d.Tags = append(d.Tags, lsp.DiagnosticTagUnnecessary)
			}
		}
		for _, r := range a.Related {
			d.RelatedInformation = append(d.RelatedInformation, lsp.DiagnosticRelatedInformation{
				Location: lsp.Location{URI: r.URI, Range: r.Range},
				Message:  r.Message,
			})
		}
		diags = append(diags, d)
	}
	return diags
}
