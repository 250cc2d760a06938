package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/file"
	"github.com/corymhall/selenelsp/lint"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/offsets"
	"github.com/corymhall/selenelsp/selene"
	"github.com/corymhall/selenelsp/workspace"
)

// fileDiagnostics holds the current state of published diagnostics for a file.
type fileDiagnostics struct {
	seq         uint64 // run that produced them
	version     int32  // file version
	annotations []lint.Annotation
}

var lintArgs = []string{"--display-style=json2", "--no-summary", "-"}

// triggered is the scheduler's run callback.
func (s *server) triggered(uri lsp.DocumentURI) {
	s.lintInBackground(uri)
}

func (s *server) lintInBackground(uri lsp.DocumentURI) {
	seq := s.runSeq.Add(1)
	s.goBackground(func(ctx context.Context) {
		_ = s.lint(ctx, uri, seq)
	})
}

// relint lints every open document that keep accepts and waits for the
// runs to finish. A nil keep accepts all documents.
func (s *server) relint(ctx context.Context, keep func(*file.Overlay) bool) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, doc := range s.openDocuments() {
		if keep != nil && !keep(doc) {
			continue
		}
		uri := doc.URI()
		seq := s.runSeq.Add(1)
		g.Go(func() error {
			return s.lint(ctx, uri, seq)
		})
	}
	return g.Wait()
}

// lint runs selene over the current text of uri and publishes the result
// as the run numbered seq. It only returns an error when ctx is done.
func (s *server) lint(ctx context.Context, uri lsp.DocumentURI, seq uint64) error {
	ctx, done := debug.Start(ctx, "lint", slog.String("uri", string(uri)), slog.Uint64("seq", seq))
	defer done()

	doc := s.document(uri)
	if doc == nil {
		return nil
	}
	s.mu.Lock()
	missing := s.toolMissing
	s.mu.Unlock()

	var (
		annotations []lint.Annotation
		err         error
	)
	switch kind := doc.Kind(); {
	case !kind.IsSource() && !kind.IsConfig():
		return nil
	case missing:
		// Nothing to run, but what was published before is stale.
		debug.Debug.Log(ctx, "selene unavailable, skipping run")
	case kind.IsSource():
		annotations, err = s.lintSource(ctx, doc)
	default:
		annotations, err = s.lintConfig(ctx, doc)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.toolFailed(ctx, err)
		annotations = nil
	}
	s.publish(ctx, doc, seq, annotations)
	return nil
}

func (s *server) lintSource(ctx context.Context, doc *file.Overlay) ([]lint.Annotation, error) {
	root := s.root()
	if root != "" && doc.URI().IsFile() {
		cfg, err := workspace.LoadConfig(root)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			debug.Warning.Log(ctx, "ignoring workspace config", slog.Any("error", err))
		}
		// selene only reads stdin here, so excludes have to be applied
		// before running it.
		if cfg.Excludes(root, doc.URI().Path()) {
			debug.Debug.Log(ctx, "document is excluded")
			return nil, nil
		}
	}

	text := doc.Text()
	out, err := s.tool.Run(ctx, selene.Request{
		Args:   lintArgs,
		Dir:    root,
		Stdin:  &text,
		Expect: selene.ExpectFindings,
	})
	if err != nil {
		return nil, err
	}

	var diags []*selene.Diagnostic
	for _, rec := range selene.ParseOutput(ctx, out) {
		switch rec := rec.(type) {
		case *selene.Diagnostic:
			diags = append(diags, rec)
		case *selene.PluginsNotLoaded:
			s.pluginsNotLoaded(rec)
		}
	}

	m := offsets.Resolve(text, lint.Offsets(diags))
	annotations := lint.TranslateDiagnostics(doc, diags, m)
	s.checkRoblox(diags)
	return annotations, nil
}

func (s *server) lintConfig(ctx context.Context, doc *file.Overlay) ([]lint.Annotation, error) {
	root := s.root()
	s.loadCapabilities(ctx)

	req := selene.Request{
		Args:   []string{"validate-config", "--display-style=json2"},
		Dir:    root,
		Expect: selene.ExpectFindings,
	}
	if _, ok := s.gate.Query(selene.FeatureValidateConfig, selene.ValidateConfigRange); ok {
		text := doc.Text()
		req.Args = append(req.Args, "--stdin")
		req.Stdin = &text
	} else if root == "" {
		// The file based variant validates the workspace's config and
		// has nothing to look at without one.
		return nil, nil
	}

	out, err := s.tool.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	var annotations []lint.Annotation
	for _, rec := range selene.ParseOutput(ctx, out) {
		invalid, ok := rec.(*selene.InvalidConfig)
		if !ok {
			continue
		}
		if a, ok := lint.TranslateInvalidConfig(doc, invalid, root); ok {
			annotations = append(annotations, a)
		} else {
			debug.Debug.Log(ctx, "config error for another file", slog.String("source", invalid.Source))
		}
	}
	return annotations, nil
}

// toolFailed decides whether a failed run is worth telling the user about.
// Only a selene that cannot be found or started is; it is reported once and
// further runs are suppressed until it is fixed.
func (s *server) toolFailed(ctx context.Context, err error) {
	var launch *selene.LaunchError
	if !errors.Is(err, selene.ErrToolNotFound) && !errors.As(err, &launch) {
		debug.LogError(ctx, "selene run failed", err)
		return
	}

	s.mu.Lock()
	reported := s.toolMissing
	s.toolMissing = true
	s.mu.Unlock()
	if reported {
		return
	}
	debug.LogError(ctx, "selene unavailable", err)
	s.showMessage(ctx, lsp.MessageTypeError, fmt.Sprintf("An error occurred when finding selene:\n%v", err))
}

// toolRestored lifts the suppression set by toolFailed.
func (s *server) toolRestored() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolMissing = false
}

// publish replaces the annotations of doc with the result of run seq,
// unless a newer run has already been published or the document was
// closed in the meantime.
func (s *server) publish(ctx context.Context, doc *file.Overlay, seq uint64, annotations []lint.Annotation) {
	s.diagnosticsMu.Lock()
	defer s.diagnosticsMu.Unlock()

	uri := doc.URI()
	if prev, ok := s.diagnostics[uri]; ok && seq < prev.seq {
		debug.Debug.Log(ctx, "dropping stale run", slog.Uint64("published", prev.seq))
		return
	}
	if s.document(uri) == nil {
		return
	}

	f := &fileDiagnostics{
		seq:         seq,
		version:     doc.Version(),
		annotations: annotations,
	}
	s.diagnostics[uri] = f
	s.publishFileDiagnostics(ctx, uri, f)
}

// clearDiagnostics publishes an empty set for uri. It counts as a run, so
// results of runs started before it are dropped.
func (s *server) clearDiagnostics(ctx context.Context, uri lsp.DocumentURI) {
	seq := s.runSeq.Add(1)

	s.diagnosticsMu.Lock()
	defer s.diagnosticsMu.Unlock()
	f := &fileDiagnostics{seq: seq, version: -1}
	s.diagnostics[uri] = f
	s.publishFileDiagnostics(ctx, uri, f)
}

func (s *server) publishFileDiagnostics(ctx context.Context, uri lsp.DocumentURI, f *fileDiagnostics) {
	params := &lsp.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: lint.ToProtocol(f.annotations),
	}
	if f.version >= 0 {
		version := f.version
		params.Version = &version
	}
	if err := s.client.PublishDiagnostics(ctx, params); err != nil {
		s.logger.Printf("error publishing diagnostics: %v", err)
	}
}
