package suppliers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tdr/proveedores/internal/platform/kv"
	_ "github.com/tdr/proveedores/testing"
)

var errSourceDown = errors.New("source down")

type stubSource struct {
	mu    sync.Mutex
	list  []Supplier
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) ([]Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return cloneList(s.list), nil
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingObserver struct {
	sources []string
}

func (o *recordingObserver) ObserveSeed(source string) {
	o.sources = append(o.sources, source)
}

type testEnv struct {
	mr      *miniredis.Miniredis
	store   kv.Store
	repo    Repository
	service *Service
}

func newTestEnv(t *testing.T, seeder *Seeder) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := kv.NewRedisStore(client)
	repo := NewRepository(store)
	svc := NewService(repo, seeder, ServiceConfig{Logger: discardLogger()})
	return &testEnv{mr: mr, store: store, repo: repo, service: svc}
}

// preload writes a raw list into storage before Init.
func (e *testEnv) preload(t *testing.T, list []Supplier) {
	t.Helper()
	data, err := json.Marshal(list)
	require.NoError(t, err)
	require.NoError(t, e.mr.Set(KeyList, string(data)))
}

func (e *testEnv) storedList(t *testing.T) []Supplier {
	t.Helper()
	list, err := e.repo.Load(context.Background())
	require.NoError(t, err)
	return list
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sampleDraft(name string) Draft {
	return Draft{
		Name:    name,
		Contact: "Contacto " + name,
		Email:   "contacto@example.com",
		Phone:   "+56 9 1234 5678",
		Active:  true,
	}
}

func ids(list []Supplier) []int64 {
	out := make([]int64, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}
