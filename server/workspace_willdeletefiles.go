package server

import (
	"context"
	"slices"
	"strings"

	"github.com/corymhall/selenelsp/lsp"
)

// WillDeleteFiles clears the diagnostics of deleted files and of every file
// below a deleted folder.
func (s *server) WillDeleteFiles(ctx context.Context, params *lsp.DeleteFilesParams) (*lsp.WorkspaceEdit, error) {
	s.diagnosticsMu.Lock()
	var uris []lsp.DocumentURI
	for uri := range s.diagnostics {
		if slices.ContainsFunc(params.Files, func(f lsp.FileDelete) bool { return within(uri, f.URI) }) {
			uris = append(uris, uri)
		}
	}
	s.diagnosticsMu.Unlock()

	slices.Sort(uris)
	for _, uri := range uris {
		s.clearDiagnostics(ctx, uri)
	}
	return nil, nil
}

func within(uri, deleted lsp.DocumentURI) bool {
	if uri == deleted {
		return true
	}
	return strings.HasPrefix(string(uri), strings.TrimSuffix(string(deleted), "/")+"/")
}
