package server

import (
	"context"
	"fmt"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/selene"
	"github.com/corymhall/selenelsp/workspace"
)

const (
	actionSetupConfiguration = "Setup Configuration"
	actionIgnore             = "Ignore"
)

// robloxProblems are messages selene only reports for Roblox code linted
// against the plain Lua standard library.
var robloxProblems = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, name := range []string{"game", "workspace", "UDim2", "Vector2", "Vector3", "Enum"} {
		m[fmt.Sprintf("`%s` is not defined", name)] = struct{}{}
	}
	return m
}()

func looksLikeRoblox(diags []*selene.Diagnostic) bool {
	for _, d := range diags {
		if _, ok := robloxProblems[d.Message]; ok {
			return true
		}
	}
	return false
}

// checkRoblox offers, once per session, to configure the workspace for
// Roblox when diags suggest it is a Roblox project.
func (s *server) checkRoblox(diags []*selene.Diagnostic) {
	if !looksLikeRoblox(diags) {
		return
	}

	s.mu.Lock()
	root := s.rootDir
	offer := s.settings.WarnRoblox && !s.warnedRoblox && root != ""
	if offer {
		s.warnedRoblox = true
	}
	s.mu.Unlock()

	if offer {
		s.goBackground(func(ctx context.Context) {
			s.offerRobloxSetup(ctx, root)
		})
	}
}

func (s *server) offerRobloxSetup(ctx context.Context, root string) {
	item, err := s.client.ShowMessageRequest(ctx, &lsp.ShowMessageRequestParams{
		Type:    lsp.MessageTypeWarning,
		Message: "It looks like you're trying to lint a Roblox codebase without proper configuration.",
		Actions: []lsp.MessageActionItem{
			{Title: actionSetupConfiguration},
			{Title: actionIgnore},
		},
	})
	if err != nil {
		debug.LogError(ctx, "offering roblox setup", err)
		return
	}
	if item == nil || item.Title != actionSetupConfiguration {
		return
	}

	if err := workspace.EnableRoblox(root); err != nil {
		debug.LogError(ctx, "enabling roblox", err)
		s.showMessage(ctx, lsp.MessageTypeError, fmt.Sprintf("Couldn't update %s.\n\n%v", workspace.ConfigFile, err))
		return
	}
	_ = s.relint(ctx, nil)
}
