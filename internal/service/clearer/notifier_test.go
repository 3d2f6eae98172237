package clearer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newEndpoint starts a clear endpoint answering with the status for each alarm id.
func newEndpoint(t *testing.T, statuses map[string]int) (*httptest.Server, func() []string) {
	t.Helper()

	var (
		mu   sync.Mutex
		seen []string
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/alarm/clear/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		mu.Lock()
		seen = append(seen, id)
		mu.Unlock()

		status, ok := statuses[id]
		if !ok {
			status = http.StatusOK
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte("alarm " + id))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	requested := func() []string {
		mu.Lock()
		defer mu.Unlock()

		return append([]string(nil), seen...)
	}

	return server, requested
}

// TestNotifier_Statuses accepts 200 and 201 and rejects anything else.
func TestNotifier_Statuses(t *testing.T) {
	t.Parallel()

	server, seen := newEndpoint(t, map[string]int{
		"created": http.StatusCreated,
		"gone":    http.StatusNotFound,
	})

	n := NewNotifier(NotifierOptions{BaseURL: server.URL + "/api/alarm/clear/", Timeout: time.Second})

	require.NoError(t, n.Clear(context.Background(), "ok"))
	require.NoError(t, n.Clear(context.Background(), "created"))

	err := n.Clear(context.Background(), "gone")
	require.ErrorIs(t, err, ErrRejected)
	require.ErrorContains(t, err, "404")
	require.ErrorContains(t, err, "alarm gone")

	require.Equal(t, []string{"ok", "created", "gone"}, seen())
}

// TestNotifier_EscapesAlarmID keeps the identifier in a single path segment.
func TestNotifier_EscapesAlarmID(t *testing.T) {
	t.Parallel()

	server, seen := newEndpoint(t, nil)
	n := NewNotifier(NotifierOptions{BaseURL: server.URL + "/api/alarm/clear/", Timeout: time.Second})

	require.NoError(t, n.Clear(context.Background(), "A 7#x"))
	require.Equal(t, []string{"A 7#x"}, seen())
}

// TestNotifier_Pause spaces consecutive requests.
func TestNotifier_Pause(t *testing.T) {
	t.Parallel()

	server, _ := newEndpoint(t, nil)

	const pause = 50 * time.Millisecond

	n := NewNotifier(NotifierOptions{BaseURL: server.URL + "/api/alarm/clear/", Pause: pause, Timeout: time.Second})

	started := time.Now()

	for _, id := range []string{"A1", "A2", "A3"} {
		require.NoError(t, n.Clear(context.Background(), id))
	}

	require.GreaterOrEqual(t, time.Since(started), 2*pause-5*time.Millisecond)
}

// TestNotifier_TransportError reports unreachable endpoints.
func TestNotifier_TransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL + "/"
	server.Close()

	n := NewNotifier(NotifierOptions{BaseURL: baseURL, Timeout: time.Second})

	err := n.Clear(context.Background(), "A1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrRejected)
}
