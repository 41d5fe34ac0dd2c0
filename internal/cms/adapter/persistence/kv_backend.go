package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "studio-cms/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// BackendKV is the name reported for the managed KV REST store
const BackendKV = "kv"

// KVBackend talks to a Vercel KV / Upstash Redis REST endpoint. Each command
// is POSTed as a JSON array, e.g. ["GET","projects"], and answered with
// {"result": ...} or {"error": "..."}.
type KVBackend struct {
	url     string
	token   string
	timeout time.Duration
}

type kvResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// NewKVBackend creates a client for the REST endpoint at url.
func NewKVBackend(url, token string, timeout time.Duration) *KVBackend {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KVBackend{url: url, token: token, timeout: timeout}
}

// Name returns the backend name
func (k *KVBackend) Name() string { return BackendKV }

// Ping issues a PING command
func (k *KVBackend) Ping(ctx context.Context) error {
	_, err := k.do(ctx, "PING")
	return err
}

// Get returns the stored value. Values written by other KV clients may come
// back as a JSON string holding JSON text; they are unwrapped once.
func (k *KVBackend) Get(ctx context.Context, key string) (json.RawMessage, error) {
	result, err := k.do(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(result)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, err
		}
		if !json.Valid([]byte(text)) {
			return nil, fmt.Errorf("kv key %q: %w", key, apperrors.ErrMalformedStorage)
		}
		return json.RawMessage(text), nil
	}
	return json.RawMessage(trimmed), nil
}

// Set stores value as JSON text
func (k *KVBackend) Set(ctx context.Context, key string, value json.RawMessage) error {
	_, err := k.do(ctx, "SET", key, string(value))
	return err
}

// Close is a no-op; the REST client keeps no connection of its own.
func (k *KVBackend) Close() error { return nil }

func (k *KVBackend) do(ctx context.Context, command ...string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Post(k.url)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+k.token)
	agent.JSON(command)
	agent.Timeout(k.timeout)
	if err := agent.Parse(); err != nil {
		return nil, fmt.Errorf("kv request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("kv %s: %w", command[0], errors.Join(errs...))
	}

	var resp kvResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kv %s: status %d: %w", command[0], code, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("kv %s: %s", command[0], resp.Error)
	}
	if code >= fiber.StatusBadRequest {
		return nil, fmt.Errorf("kv %s: unexpected status %d", command[0], code)
	}
	return resp.Result, nil
}
