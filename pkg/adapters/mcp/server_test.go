package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/tesoro/pkg/adapters/mcp"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tableTransport map[string]string

func (t tableTransport) Send(_ context.Context, cmd string) (domain.RawReply, error) {
	return domain.RawReply{Output: t[cmd]}, nil
}

func (t tableTransport) Close() error { return nil }

func newTestServer(t *testing.T) *mcp.Server {
	t.Helper()
	g := game.New(tableTransport{
		"mover(templo)":       "ok: llegaste a templo",
		"tomar(llave)":        "ok: tomaste llave",
		"lugares_posibles(L)": "ok: caminos\n[templo, rio]",
		"verificar_gane":      "warn: aun no ganas",
	})
	return mcp.NewServer(g)
}

func call(t *testing.T, srv *mcp.Server, id int, method string, params any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := srv.MCPServer().HandleMessage(context.Background(), raw)
	out, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	return decoded
}

func initialize(t *testing.T, srv *mcp.Server) {
	t.Helper()
	call(t, srv, 0, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
		"capabilities":    map[string]any{},
	})
}

func structured(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	result, ok := resp["result"].(map[string]any)
	require.True(t, ok, "expected a result, got %v", resp)
	content, ok := result["structuredContent"].(map[string]any)
	require.True(t, ok, "expected structured content, got %v", result)
	return content
}

func TestServer_ListsTools(t *testing.T) {
	srv := newTestServer(t)
	initialize(t, srv)

	resp := call(t, srv, 1, "tools/list", map[string]any{})
	result := resp["result"].(map[string]any)
	tools := result["tools"].([]any)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	for _, want := range []string{"move", "take", "use", "reset", "destinations", "inventory", "check_win", "execute"} {
		assert.Contains(t, names, want)
	}
}

func TestServer_Tools(t *testing.T) {
	srv := newTestServer(t)
	initialize(t, srv)

	t.Run("Move Updates State", func(t *testing.T) {
		resp := call(t, srv, 2, "tools/call", map[string]any{
			"name":      "move",
			"arguments": map[string]any{"destination": "templo"},
		})
		content := structured(t, resp)
		assert.Equal(t, "ok", content["status"])
		assert.Equal(t, "llegaste a templo", content["message"])
		assert.Equal(t, "templo", content["state"].(map[string]any)["location"])
	})

	t.Run("List Query", func(t *testing.T) {
		resp := call(t, srv, 3, "tools/call", map[string]any{"name": "destinations"})
		content := structured(t, resp)
		assert.Equal(t, []any{"templo", "rio"}, content["items"])
	})

	t.Run("Warning Is Tagged", func(t *testing.T) {
		resp := call(t, srv, 4, "tools/call", map[string]any{"name": "check_win"})
		content := structured(t, resp)
		assert.Equal(t, "warn", content["status"])
		assert.Equal(t, "[aviso] aun no ganas", content["message"])
	})

	t.Run("Missing Argument", func(t *testing.T) {
		resp := call(t, srv, 5, "tools/call", map[string]any{
			"name":      "take",
			"arguments": map[string]any{},
		})
		raw := fmt.Sprint(resp)
		assert.Contains(t, raw, "missing required argument")
	})
}

func TestServer_StateResource(t *testing.T) {
	srv := newTestServer(t)
	initialize(t, srv)

	call(t, srv, 1, "tools/call", map[string]any{
		"name":      "take",
		"arguments": map[string]any{"object": "llave"},
	})

	resp := call(t, srv, 2, "resources/read", map[string]any{"uri": mcp.StateURI})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `\"inventory\":[\"llave\"]`)
}
