package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/file"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/rpc"
)

// ModificationSource identifies the origin of a change.
type ModificationSource int

const (
	// FromDidOpen is from a didOpen notification.
	FromDidOpen = ModificationSource(iota)

	// FromDidChange is from a didChange notification.
	FromDidChange

	// FromDidSave is from a didSave notification.
	FromDidSave

	// FromDidClose is from a didClose notification.
	FromDidClose
)

func (m ModificationSource) String() string {
	switch m {
	case FromDidOpen:
		return "didOpen"
	case FromDidChange:
		return "didChange"
	case FromDidSave:
		return "didSave"
	case FromDidClose:
		return "didClose"
	default:
		return fmt.Sprintf("(unknown source: %d)", int(m))
	}
}

func (s *server) didModifyFiles(ctx context.Context, modifications []file.Modification, cause ModificationSource) error {
	ctx, done := debug.Start(ctx, "textdocument.didModifyFiles", slog.String("cause", cause.String()))
	defer done()

	for _, mod := range modifications {
		if err := s.updateOverlay(mod); err != nil {
			return err
		}
		switch mod.Action {
		case file.Open:
			// Newly opened documents are always linted, whatever the policy.
			s.lintInBackground(mod.URI)
		case file.Change:
			s.scheduler.Changed(mod.URI, mod.Changes)
		case file.Save:
			s.scheduler.Saved(mod.URI)
		case file.Close:
			s.clearDiagnostics(ctx, mod.URI)
		}
	}
	return nil
}

// updateOverlay records the editor's view of the document after mod.
func (s *server) updateOverlay(mod file.Modification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.documents[mod.URI]
	switch mod.Action {
	case file.Open:
		s.documents[mod.URI] = file.NewOverlay(mod.URI, mod.LanguageID, mod.Version, string(mod.Text))
	case file.Change:
		if current == nil {
			return fmt.Errorf("%w: change for unopened document %s", rpc.ErrInvalidParams, mod.URI)
		}
		s.documents[mod.URI] = current.Apply(mod.Version, mod.Changes)
	case file.Save:
		if current == nil {
			return fmt.Errorf("%w: save for unopened document %s", rpc.ErrInvalidParams, mod.URI)
		}
		if mod.Text != nil && file.HashOf(mod.Text) != current.Hash() {
			s.documents[mod.URI] = file.NewOverlay(mod.URI, current.LanguageID(), current.Version(), string(mod.Text))
		}
	case file.Close:
		delete(s.documents, mod.URI)
	}
	return nil
}

func (s *server) document(uri lsp.DocumentURI) *file.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documents[uri]
}

func (s *server) openDocuments() []*file.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]*file.Overlay, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	return docs
}
