package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/rpc"
	"github.com/corymhall/selenelsp/selene"
)

type command struct {
	title string
	// failure prefixes the error shown to the user.
	failure string
	run     func(ctx context.Context) (string, error)
}

func (s *server) command(name string) (command, bool) {
	switch name {
	case commandReinstall:
		return command{title: "Locating selene", failure: "Couldn't find selene", run: s.reinstall}, true
	case commandUpdateRobloxStd:
		return command{title: "Updating Roblox standard library", failure: "Couldn't update Roblox standard library", run: s.robloxStd("update-roblox-std")}, true
	case commandGenerateRobloxStd:
		return command{title: "Generating Roblox standard library", failure: "Couldn't create Roblox standard library", run: s.robloxStd("generate-roblox-std")}, true
	}
	return command{}, false
}

// ExecuteCommand starts the command and returns without waiting for it.
// The outcome is reported with window/showMessage.
func (s *server) ExecuteCommand(ctx context.Context, params *lsp.ExecuteCommandParams) (any, error) {
	cmd, ok := s.command(params.Command)
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %q", rpc.ErrInvalidParams, params.Command)
	}
	s.goBackground(func(ctx context.Context) {
		ctx, done := debug.Start(ctx, "executeCommand", slog.String("command", params.Command))
		defer done()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		work := s.progress.begin(ctx, cmd.title, cancel)
		msg, err := cmd.run(ctx)
		if errors.Is(err, context.Canceled) {
			work.end(ctx, "Cancelled.")
			return
		}
		if err != nil {
			work.end(ctx, "Failed.")
			debug.LogError(ctx, cmd.failure, err)
			s.showMessage(ctx, lsp.MessageTypeError, fmt.Sprintf("%s:\n%v", cmd.failure, err))
			return
		}
		work.end(ctx, "Done.")
		if msg != "" {
			s.showMessage(ctx, lsp.MessageTypeInfo, msg)
		}
	})
	return nil, nil
}

// reinstall looks for selene again and starts over with whatever it finds.
func (s *server) reinstall(ctx context.Context) (string, error) {
	s.tool.SetSelenePath(s.currentSettings().SelenePath)
	path, err := s.tool.Path()
	if err != nil {
		return "", err
	}
	s.toolChanged(ctx)
	s.watchBinary(ctx)
	if err := s.relint(ctx, nil); err != nil {
		return "", err
	}
	return fmt.Sprintf("Using selene at %s", path), nil
}

func (s *server) robloxStd(subcommand string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		out, err := s.tool.Run(ctx, selene.Request{
			Args:   []string{subcommand},
			Dir:    s.root(),
			Expect: selene.ExpectSuccess,
		})
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(out), nil
	}
}
