//nolint:varnamelen // Test files use idiomatic short variable names (t, g, o, etc.)
package syncengine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/media-sync/internal/log"
	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/internal/watermark"
	"github.com/joe/media-sync/pkg/filesystem"
)

const (
	srcRoot = "/src"
	dstRoot = "/dst"
)

// memStore is an in-memory watermark.Store with injectable failures.
type memStore struct {
	mu      sync.Mutex
	table   watermark.Watermarks
	saves   int
	loadErr error
	saveErr error
}

func newMemStore(table watermark.Watermarks) *memStore {
	return &memStore{table: table.Clone()}
}

func (s *memStore) Close() error { return nil }

func (s *memStore) Load(context.Context) (watermark.Watermarks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}

	return s.table.Clone(), nil
}

func (s *memStore) Location() string { return "memory" }

func (s *memStore) Save(_ context.Context, table watermark.Watermarks) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}

	s.saves++
	s.table = table.Clone()

	return nil
}

func (s *memStore) failSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveErr = err
}

func (s *memStore) saved() (watermark.Watermarks, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.table.Clone(), s.saves
}

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []syncengine.Event
}

func (r *recorder) Emit(event syncengine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recorder) all() []syncengine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]syncengine.Event(nil), r.events...)
}

type fixture struct {
	src   *filesystem.MockFileSystem
	dst   *filesystem.MockFileSystem
	store *memStore
	orch  *syncengine.Orchestrator
	rec   *recorder
}

func newFixture(table watermark.Watermarks) *fixture {
	src := filesystem.NewMockFileSystem()
	dst := filesystem.NewMockFileSystem()
	src.AddDir(srcRoot, at(2020, 1, 1, 0, 0))
	dst.AddDir(dstRoot, at(2020, 1, 1, 0, 0))

	store := newMemStore(table)
	orch := syncengine.NewOrchestrator(srcRoot, dstRoot, store, src, dst)
	orch.Logger = log.Discard()

	rec := &recorder{}
	orch.SetEventEmitter(rec)

	return &fixture{src: src, dst: dst, store: store, orch: orch, rec: rec}
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

// payload returns n deterministic bytes.
func payload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}

	return data
}

// runToEnd ticks until the queue has drained and nothing is active.
func runToEnd(g *WithT, o *syncengine.Orchestrator) {
	g.Eventually(func() bool {
		_ = o.Tick(context.Background())
		status := o.Snapshot()

		return status.Phase == syncengine.PhaseReady && status.Index >= status.Total
	}).WithTimeout(5 * time.Second).WithPolling(time.Millisecond).Should(BeTrue())
}

// gate blocks the first write to a destination path until released.
type gate struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func holdFirstWrite(fs *filesystem.MockFileSystem, path string) *gate {
	gt := &gate{started: make(chan struct{}), release: make(chan struct{})}

	fs.OnWrite(path, func(int64) {
		gt.once.Do(func() {
			close(gt.started)
			<-gt.release
		})
	})

	return gt
}

func (gt *gate) waitStarted(t *testing.T) {
	t.Helper()

	select {
	case <-gt.started:
	case <-time.After(5 * time.Second):
		t.Fatal("copy never started writing")
	}
}
