package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sydologie/diapoai/internal/adapters/secondary/dom/htmldom"
	"github.com/sydologie/diapoai/internal/adapters/secondary/export"
	"github.com/sydologie/diapoai/internal/adapters/secondary/preview"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/domain/services"
	"github.com/sydologie/diapoai/internal/test/builders"
)

const twoSlides = `<section><h2>Introduction</h2><p>Bonjour</p></section><section><h2>Conclusion</h2><ul><li>Merci</li></ul></section>`

type testEnv struct {
	server    *Server
	http      *httptest.Server
	workspace *services.Workspace
	renderer  *preview.Renderer
	clock     *builders.FakeClock
}

func testServerConfig() entities.ServerConfig {
	return entities.ServerConfig{Host: "127.0.0.1", Port: 0}
}

// newTestEnv wires a server like serve does, with a running hub and a live
// preview renderer over the websocket engine
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := builders.NewFakeClock()
	parser := htmldom.NewParser()

	srv := NewServer(testServerConfig(), clock, nil)
	renderer := preview.NewRenderer(srv.Engine(), nil, parser, clock, nil, preview.Options{})
	ws := services.NewWorkspace(services.NewDeckService(parser, nil), renderer, nil)

	srv.SetWorkspace(ws)
	srv.SetPreview(renderer)
	srv.SetExportService(export.NewService(export.ServiceConfig{
		Export: entities.ExportConfig{OutputDir: t.TempDir()},
		Clock:  clock,
	}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	go srv.connMgr.Run(ctx)
	require.Eventually(t, srv.connMgr.Running, time.Second, time.Millisecond)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		ws.Close()
	})

	return &testEnv{server: srv, http: ts, workspace: ws, renderer: renderer, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := e.http.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path string, v interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return e.do(t, method, path, "application/json", buf.String())
}

func (e *testEnv) loadDeck(t *testing.T) {
	t.Helper()
	_, err := e.workspace.Load(context.Background(), ports.DeckInput{HTML: twoSlides})
	require.NoError(t, err)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
