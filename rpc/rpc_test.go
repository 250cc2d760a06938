package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestHeaderStreamRead(t *testing.T) {
	in := frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"rootUri":"file:///w"}}`) +
		frame(`{"jsonrpc":"2.0","method":"initialized","params":{}}`) +
		frame(`{"jsonrpc":"2.0","id":"abc","result":[1]}`)
	s := NewHeaderStream(strings.NewReader(in), io.Discard)
	ctx := context.Background()

	msg, _, err := s.Read(ctx)
	require.NoError(t, err)
	call, ok := msg.(*Call)
	require.True(t, ok)
	require.Equal(t, "initialize", call.Method())
	require.Equal(t, "1", call.ID().String())
	require.JSONEq(t, `{"rootUri":"file:///w"}`, string(call.Params()))

	msg, _, err = s.Read(ctx)
	require.NoError(t, err)
	require.IsType(t, &Notification{}, msg)

	msg, _, err = s.Read(ctx)
	require.NoError(t, err)
	resp, ok := msg.(*Response)
	require.True(t, ok)
	require.Equal(t, `"abc"`, resp.ID().String())
	require.JSONEq(t, `[1]`, string(resp.Result()))

	_, _, err = s.Read(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestHeaderStreamReadErrors(t *testing.T) {
	ctx := context.Background()
	_, _, err := NewHeaderStream(strings.NewReader("Content-Type: x\r\n\r\n"), io.Discard).Read(ctx)
	require.ErrorContains(t, err, "missing Content-Length")

	_, _, err = NewHeaderStream(strings.NewReader(frame(`{"jsonrpc":"1.0","method":"x"}`)), io.Discard).Read(ctx)
	require.ErrorIs(t, err, ErrParse)

	_, _, err = NewHeaderStream(strings.NewReader(frame(`{"jsonrpc":"2.0"}`)), io.Discard).Read(ctx)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestResponseErrorOnWire(t *testing.T) {
	resp, err := NewResponse(ID{number: 7}, nil, fmt.Errorf("%w: %q", ErrMethodNotFound, "foo/bar"))
	require.NoError(t, err)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":7,"error":{"code":-32601,"message":"JSON RPC method not found: \"foo/bar\""}}`, string(data))

	resp, err = NewResponse(ID{name: "x"}, nil, errors.New("plain"))
	require.NoError(t, err)
	data, err = json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":"x","error":{"code":-32001,"message":"plain"}}`, string(data))

	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	require.ErrorIs(t, msg.(*Response).Err(), ErrUnknown)
}

func TestConnServesRequests(t *testing.T) {
	in := frame(`{"jsonrpc":"2.0","id":1,"method":"echo","params":"hi"}`) +
		frame(`not json`) +
		frame(`{"jsonrpc":"2.0","id":2,"method":"missing"}`) +
		frame(`{"jsonrpc":"2.0","method":"note"}`)
	var out bytes.Buffer
	conn := NewConn(NewHeaderStream(strings.NewReader(in), &out), nil)

	var notified []string
	handler := func(ctx context.Context, reply Replier, req Request) error {
		switch req.Method() {
		case "echo":
			var s string
			require.NoError(t, json.Unmarshal(req.Params(), &s))
			return reply(ctx, s, nil)
		case "note":
			notified = append(notified, req.Method())
			return reply(ctx, nil, nil)
		}
		return MethodNotFound(ctx, reply, req)
	}
	require.NoError(t, conn.Run(context.Background(), handler))
	<-conn.Done()

	replies := NewHeaderStream(&out, io.Discard)
	msg, _, err := replies.Read(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `"hi"`, string(msg.(*Response).Result()))

	msg, _, err = replies.Read(context.Background())
	require.NoError(t, err)
	require.ErrorIs(t, msg.(*Response).Err(), ErrMethodNotFound)

	_, _, err = replies.Read(context.Background())
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, []string{"note"}, notified)
}

func TestConnCall(t *testing.T) {
	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()
	client := NewConn(NewHeaderStream(clientIn, clientOut), nil)
	peer := NewHeaderStream(serverIn, serverOut)

	go func() {
		msg, _, err := peer.Read(context.Background())
		if err != nil {
			return
		}
		call := msg.(*Call)
		resp, _ := NewResponse(call.ID(), []string{"a", "b"}, nil)
		_, _ = peer.Write(context.Background(), resp)
		_ = serverOut.Close()
	}()
	go func() { _ = client.Run(context.Background(), MethodNotFound) }()

	var result []string
	_, err := client.Call(context.Background(), "workspace/configuration", map[string]any{}, &result)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, result)
	<-client.Done()
}
