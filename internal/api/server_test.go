package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joe/media-sync/internal/syncengine"
)

// mockController implements Controller for testing
type mockController struct {
	planFunc func(ctx context.Context) (*syncengine.Plan, error)
	copyErr  error
	status   syncengine.Status
	summary  syncengine.Summary
	paused   int
	skipped  int
}

func (m *mockController) Plan(ctx context.Context) (*syncengine.Plan, error) {
	if m.planFunc == nil {
		return &syncengine.Plan{}, nil
	}

	return m.planFunc(ctx)
}

func (m *mockController) Copy() error { return m.copyErr }

func (m *mockController) Pause() { m.paused++ }

func (m *mockController) Skip() { m.skipped++ }

func (m *mockController) Snapshot() syncengine.Status { return m.status }

func (m *mockController) Summary() syncengine.Summary { return m.summary }

func newTestServer(ctrl Controller) *Server {
	return New(Config{Listen: "127.0.0.1:0"}, ctrl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	return rr
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&mockController{status: syncengine.Status{Phase: syncengine.PhaseReady}})

	rr := serve(t, srv, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp HealthzResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ready", resp.Phase)
}

func TestStatusReturnsSnapshot(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&mockController{status: syncengine.Status{
		Phase:       syncengine.PhaseCopying,
		Current:     "trip/a.mp4",
		Index:       1,
		Total:       3,
		BytesCopied: 100,
		BytesTotal:  300,
	}})

	rr := serve(t, srv, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rr.Code)

	var status syncengine.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, syncengine.PhaseCopying, status.Phase)
	assert.Equal(t, "trip/a.mp4", status.Current)
	assert.Equal(t, int64(300), status.BytesTotal)
}

func TestSummaryListsFailures(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&mockController{summary: syncengine.Summary{
		Planned:   2,
		Completed: 1,
		Failed:    1,
		Bytes:     42,
		Failures: []*syncengine.CopyError{{
			Item: syncengine.WorkItem{RelativePath: "trip/b.mp4"},
			Err:  errors.New("Destination file exists."),
		}},
	}})

	rr := serve(t, srv, http.MethodGet, "/summary")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Completed)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "trip/b.mp4", resp.Failures[0].Path)
	assert.Equal(t, "Destination file exists.", resp.Failures[0].Error)
}

func TestPlanReturnsItems(t *testing.T) {
	t.Parallel()

	modTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := newTestServer(&mockController{planFunc: func(context.Context) (*syncengine.Plan, error) {
		return &syncengine.Plan{
			Items:      []syncengine.WorkItem{{RelativePath: "trip/a.mp4", Size: 2048, ModTime: modTime}},
			TotalBytes: 2048,
		}, nil
	}})

	rr := serve(t, srv, http.MethodPost, "/plan")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp PlanResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2,048 bytes in 1 file to be copied.", resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "trip/a.mp4", resp.Items[0].Path)
	assert.Equal(t, "2024-05-01T12:00:00Z", resp.Items[0].ModTime)
}

func TestPlanErrorStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"busy", syncengine.ErrBusy, http.StatusConflict},
		{"missing source", &syncengine.PlanError{Op: "source", Path: "/src", Err: syncengine.ErrSourceNotFound}, http.StatusUnprocessableEntity},
		{"missing destination", &syncengine.PlanError{Op: "destination", Path: "/dst", Err: syncengine.ErrDestinationNotFound}, http.StatusUnprocessableEntity},
		{"unsaved watermarks", &syncengine.PersistError{Location: "videos.xml", Err: errors.New("disk full")}, http.StatusServiceUnavailable},
		{"listing", &syncengine.PlanError{Op: "list", Path: "/src/a", Err: errors.New("permission denied")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(&mockController{planFunc: func(context.Context) (*syncengine.Plan, error) {
				return nil, tt.err
			}})

			rr := serve(t, srv, http.MethodPost, "/plan")
			assert.Equal(t, tt.code, rr.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestCopy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"started", nil, http.StatusAccepted},
		{"no plan", syncengine.ErrNoPlan, http.StatusConflict},
		{"exhausted", syncengine.ErrQueueExhausted, http.StatusConflict},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(&mockController{copyErr: tt.err})
			rr := serve(t, srv, http.MethodPost, "/copy")
			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestPauseAndSkip(t *testing.T) {
	t.Parallel()

	ctrl := &mockController{status: syncengine.Status{Phase: syncengine.PhasePaused}}
	srv := newTestServer(ctrl)

	rr := serve(t, srv, http.MethodPost, "/pause")
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp ActionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "pause", resp.Action)
	assert.Equal(t, syncengine.PhasePaused, resp.Status.Phase)

	rr = serve(t, srv, http.MethodPost, "/skip")
	require.Equal(t, http.StatusAccepted, rr.Code)

	assert.Equal(t, 1, ctrl.paused)
	assert.Equal(t, 1, ctrl.skipped)
}

func TestWrongMethodRejected(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&mockController{})

	rr := serve(t, srv, http.MethodGet, "/copy")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := newTestServer(&mockController{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	url := "http://" + listener.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:gosec,noctx // test server address
		if err != nil {
			return false
		}
		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
