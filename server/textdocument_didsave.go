package server

import (
	"context"
	"log/slog"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/file"
	"github.com/corymhall/selenelsp/lsp"
)

func (s *server) DidSave(ctx context.Context, params *lsp.DidSaveTextDocumentParams) error {
	ctx, done := debug.Start(ctx, "DidSave", slog.String("uri", string(params.TextDocument.URI)))
	defer done()
	c := file.Modification{
		URI:     params.TextDocument.URI,
		Action:  file.Save,
		Version: -1,
	}
	if params.Text != nil {
		c.Text = []byte(*params.Text)
	}

	return s.didModifyFiles(ctx, []file.Modification{c}, FromDidSave)
}
