package livereload_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/fs"
	"go.trai.ch/press/internal/adapters/livereload"
	"go.trai.ch/press/internal/adapters/metrics"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newHub(t *testing.T) (*livereload.Hub, string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	buildDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "index.html"), []byte("<html></html>"), 0o600))
	return livereload.NewHub(buildDir, fs.NewHasher(fs.NewWalker()), metrics.Noop{}, log), buildDir
}

func waitForClients(t *testing.T, h *livereload.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 5*time.Second, 10*time.Millisecond)
}

func TestHub_ServerSentEvents(t *testing.T) {
	hub, _ := newHub(t)
	srv := httptest.NewServer(hub.EventsHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	waitForClients(t, hub, 1)
	require.NoError(t, hub.Reload(context.Background()))

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	assert.Equal(t, "reload", event)
	var msg livereload.Message
	require.NoError(t, json.Unmarshal([]byte(data), &msg))
	assert.Len(t, msg.Hash, 16)
	assert.NotEmpty(t, msg.BuildID)

	cancel()
	waitForClients(t, hub, 0)
}

func TestHub_ReloadHashTracksOutput(t *testing.T) {
	hub, buildDir := newHub(t)
	srv := httptest.NewServer(hub.EventsHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL) //nolint:noctx // closed by test cleanup
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup
	waitForClients(t, hub, 1)

	reader := bufio.NewReader(resp.Body)
	next := func() livereload.Message {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				var msg livereload.Message
				require.NoError(t, json.Unmarshal([]byte(data), &msg))
				return msg
			}
		}
	}

	require.NoError(t, hub.Reload(context.Background()))
	first := next()
	require.NoError(t, hub.Reload(context.Background()))
	same := next()
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "index.html"), []byte("<html>new</html>"), 0o600))
	require.NoError(t, hub.Reload(context.Background()))
	changed := next()

	assert.Equal(t, first.Hash, same.Hash)
	assert.NotEqual(t, first.BuildID, same.BuildID)
	assert.NotEqual(t, first.Hash, changed.Hash)
}

func TestHub_WebSocketProtocol(t *testing.T) {
	hub, _ := newHub(t)
	srv := httptest.NewServer(hub.WebSocketHandler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup
	defer conn.Close()      //nolint:errcheck // test cleanup

	require.NoError(t, conn.WriteJSON(map[string]any{
		"command":   "hello",
		"protocols": []string{livereload.ProtocolV7},
	}))

	var hello map[string]any
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello["command"])
	assert.Equal(t, "press", hello["serverName"])

	waitForClients(t, hub, 1)
	require.NoError(t, hub.Reload(context.Background()))

	var reload map[string]any
	require.NoError(t, conn.ReadJSON(&reload))
	assert.Equal(t, "reload", reload["command"])
	assert.Equal(t, "/", reload["path"])
}

func TestHub_WebSocketRejectsUnknownProtocol(t *testing.T) {
	hub, _ := newHub(t)
	srv := httptest.NewServer(hub.WebSocketHandler())
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup
	defer conn.Close()      //nolint:errcheck // test cleanup

	require.NoError(t, conn.WriteJSON(map[string]any{"command": "hello", "protocols": []string{"v6"}}))

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
	assert.Zero(t, hub.Clients())
}

func TestScriptHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	livereload.ScriptHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, livereload.ScriptPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), livereload.EventsPath)
}
