package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/file"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/selene"
)

const (
	optionYes         = "Yes"
	optionNotThisTime = "Not this time"
	optionNever       = "Never for this project"
)

// pluginsNotLoaded asks the user, once per config file, whether selene may
// run the plugins it refused to load.
func (s *server) pluginsNotLoaded(rec *selene.PluginsNotLoaded) {
	path := rec.CanonFilename
	if path == "" {
		return
	}
	if known, _ := s.askedPlugins.ContainsOrAdd(path, struct{}{}); known {
		return
	}
	s.goBackground(func(ctx context.Context) {
		s.promptPlugins(ctx, path)
	})
}

func (s *server) promptPlugins(ctx context.Context, path string) {
	ctx, _ = debug.With(ctx, slog.String("config", path))
	item, err := s.client.ShowMessageRequest(ctx, &lsp.ShowMessageRequestParams{
		Type:    lsp.MessageTypeInfo,
		Message: "This project is trying to load plugins. Do you want to enable them?",
		Actions: []lsp.MessageActionItem{
			{Title: optionYes},
			{Title: optionNotThisTime},
			{Title: optionNever},
		},
	})
	if err != nil {
		debug.LogError(ctx, "asking about plugins", err)
		return
	}
	if item == nil {
		return
	}

	var (
		block    bool
		response string
	)
	switch item.Title {
	case optionYes:
		response = "Plugins successfully enabled."
	case optionNever:
		block = true
		response = "Plugins will not be enabled for this project."
	default:
		return
	}

	if err := selene.AuthorizePlugins(ctx, s.tool, path, block); err != nil {
		debug.LogError(ctx, "plugin authorization", err)
		s.showMessage(ctx, lsp.MessageTypeError, fmt.Sprintf("An error occurred while trying to enable plugins.\n\n%v", err))
		return
	}
	s.showMessage(ctx, lsp.MessageTypeInfo, response)

	if !block {
		_ = s.relint(ctx, func(doc *file.Overlay) bool {
			return doc.Kind().IsSource()
		})
	}
}
