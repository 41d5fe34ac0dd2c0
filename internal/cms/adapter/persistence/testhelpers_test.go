package persistence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeBackend is an in-memory remote backend for adapter tests
type fakeBackend struct {
	name   string
	mu     sync.Mutex
	values map[string]json.RawMessage
	getErr error
	setErr error
	gets   int
	sets   int
	closed bool
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{name: name, values: map[string]json.RawMessage{}}
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Get(_ context.Context, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.values[key], nil
}

func (f *fakeBackend) Set(_ context.Context, key string, value json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

// fakeUpstash is an in-memory Upstash REST endpoint
type fakeUpstash struct {
	mu     sync.Mutex
	token  string
	values map[string]string
	fail   bool
}

func newFakeUpstash(t *testing.T, token string) (*fakeUpstash, *httptest.Server) {
	t.Helper()
	f := &fakeUpstash{token: token, values: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeUpstash) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "ERR internal"})
		return
	}

	var cmd []string
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || len(cmd) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "ERR bad command"})
		return
	}

	switch cmd[0] {
	case "PING":
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "PONG"})
	case "GET":
		if v, ok := f.values[cmd[1]]; ok {
			_ = json.NewEncoder(w).Encode(map[string]string{"result": v})
			return
		}
		_, _ = w.Write([]byte(`{"result":null}`))
	case "SET":
		f.values[cmd[1]] = cmd[2]
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "OK"})
	default:
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "ERR unknown command"})
	}
}

func (f *fakeUpstash) raw(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}
