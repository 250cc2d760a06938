package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/rpc"
)

const (
	commandReinstall         = "selene.reinstall"
	commandUpdateRobloxStd   = "selene.update-roblox-std"
	commandGenerateRobloxStd = "selene.generate-roblox-std"
)

var version = "0.0.1"

func (s *server) Initialize(ctx context.Context, params *lsp.InitializeRequestParams) (*lsp.InitializeResult, error) {
	s.stateMu.Lock()
	if s.state >= serverInitializing {
		defer s.stateMu.Unlock()
		return nil, fmt.Errorf("%w: initialize called while server in %v state", rpc.ErrInvalidRequest, s.state)
	}
	s.progress.supported.Store(params.Capabilities.Window.WorkDoneProgress)
	s.state = serverInitializing
	s.stateMu.Unlock()

	root := params.RootURI
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = params.WorkspaceFolders[0].URI
	}

	s.mu.Lock()
	if root.IsFile() {
		s.rootDir = root.Path()
	}
	s.supportsConfiguration = params.Capabilities.Workspace.Configuration
	s.mu.Unlock()

	if len(params.InitializationOptions) > 0 {
		s.changeSettings(ctx, params.InitializationOptions)
	}

	var clientName string
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}
	debug.Info.Log(ctx, "initialize", slog.String("root", s.root()), slog.String("client", clientName))

	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: lsp.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    lsp.TextDocumentSyncKindIncremental,
				Save:      &lsp.SaveOptions{},
			},
			ExecuteCommandProvider: &lsp.ExecuteCommandOptions{
				Commands: []string{
					commandReinstall,
					commandUpdateRobloxStd,
					commandGenerateRobloxStd,
				},
			},
			Workspace: &lsp.WorkspaceServerCapabilities{
				FileOperations: &lsp.FileOperationOptions{
					WillDelete: &lsp.FileOperationRegistrationOptions{
						Filters: []lsp.FileOperationFilter{{Scheme: "file", Pattern: lsp.FileOperationPattern{Glob: "**"}}},
					},
				},
			},
		},
		ServerInfo: lsp.ServerInfo{
			Name:    "selenelsp",
			Version: version,
		},
	}, nil
}

func (s *server) Initialized(ctx context.Context, params *lsp.InitializedParams) error {
	s.stateMu.Lock()
	if s.state >= serverInitialized {
		defer s.stateMu.Unlock()
		return fmt.Errorf("%w: initialized called while server in %v state", rpc.ErrInvalidRequest, s.state)
	}
	s.state = serverInitialized
	s.stateMu.Unlock()

	s.scheduler.Configure(s.currentSettings().Policy())

	s.goBackground(func(ctx context.Context) {
		s.loadCapabilities(ctx)
		if s.watchFiles {
			s.startWatching(ctx)
		}
		s.pullConfiguration(ctx)
	})
	return nil
}

func (s *server) initialized() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state == serverInitialized
}
