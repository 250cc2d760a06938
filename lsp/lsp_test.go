package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corymhall/selenelsp/rpc"
)

func TestURIPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix paths")
	}
	require.Equal(t, "/home/me/my project/init.lua", DocumentURI("file:///home/me/my%20project/init.lua").Path())
	require.Equal(t, DocumentURI("file:///home/me/my%20project/init.lua"), URIFromPath("/home/me/my project/init.lua"))

	path := filepath.Join(t.TempDir(), "ünï", "selene.toml")
	require.Equal(t, path, URIFromPath(path).Path())
	require.Equal(t, DocumentURI(""), URIFromPath(""))
	require.False(t, DocumentURI("untitled:Untitled-1").IsFile())
}

type recordingServer struct {
	Server
	opened  []DidOpenTextDocumentParams
	closed  []DocumentURI
	deleted []FileDelete
}

func (s *recordingServer) WillDeleteFiles(_ context.Context, p *DeleteFilesParams) (*WorkspaceEdit, error) {
	s.deleted = append(s.deleted, p.Files...)
	return nil, nil
}

func (s *recordingServer) Logger() *log.Logger { return log.New(io.Discard, "", 0) }

func (s *recordingServer) DidOpen(_ context.Context, p *DidOpenTextDocumentParams) error {
	s.opened = append(s.opened, *p)
	return nil
}

func (s *recordingServer) DidClose(_ context.Context, p *DidCloseTextDocumentParams) error {
	s.closed = append(s.closed, p.TextDocument.URI)
	return errors.New("boom")
}

type reply struct {
	result any
	err    error
}

func dispatch(t *testing.T, h rpc.Handler, method string, params any) reply {
	t.Helper()
	var msg rpc.Request
	var err error
	msg, err = rpc.NewNotification(method, params)
	require.NoError(t, err)
	var got reply
	require.NoError(t, h(context.Background(), func(_ context.Context, result any, err error) error {
		got = reply{result: result, err: err}
		return nil
	}, msg))
	return got
}

func TestServerHandler(t *testing.T) {
	srv := &recordingServer{}
	var fellThrough []string
	h := ServerHandler(srv, func(ctx context.Context, reply rpc.Replier, req rpc.Request) error {
		fellThrough = append(fellThrough, req.Method())
		return rpc.MethodNotFound(ctx, reply, req)
	})

	got := dispatch(t, h, "textDocument/didOpen", json.RawMessage(`{"textDocument":{"uri":"file:///a.lua","languageId":"lua","version":3,"text":"local x"}}`))
	require.NoError(t, got.err)
	require.Equal(t, []DidOpenTextDocumentParams{{TextDocument: TextDocumentItem{
		URI: "file:///a.lua", LanguageID: "lua", Version: 3, Text: "local x",
	}}}, srv.opened)

	got = dispatch(t, h, "textDocument/didClose", json.RawMessage(`{"textDocument":{"uri":"file:///a.lua"}}`))
	require.EqualError(t, got.err, "boom")
	require.Equal(t, []DocumentURI{"file:///a.lua"}, srv.closed)

	got = dispatch(t, h, "textDocument/didOpen", json.RawMessage(`{"textDocument":7}`))
	require.ErrorIs(t, got.err, rpc.ErrParse)

	got = dispatch(t, h, "workspace/willDeleteFiles", json.RawMessage(`{"files":[{"uri":"file:///src"}]}`))
	require.NoError(t, got.err)
	require.Equal(t, []FileDelete{{URI: "file:///src"}}, srv.deleted)

	got = dispatch(t, h, "textDocument/hover", nil)
	require.ErrorIs(t, got.err, rpc.ErrMethodNotFound)
	require.Equal(t, []string{"textDocument/hover"}, fellThrough)
}

func TestUnmarshalJSONNull(t *testing.T) {
	v := DidChangeConfigurationParams{Settings: json.RawMessage(`1`)}
	require.NoError(t, UnmarshalJSON(json.RawMessage("null"), &v))
	require.NoError(t, UnmarshalJSON(nil, &v))
	require.JSONEq(t, `1`, string(v.Settings))
}
