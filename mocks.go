package memes

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/reglet-dev/reglet-memes/api"
	"github.com/reglet-dev/reglet-memes/command"
)

// MockBackend implements BackendClient for testing
type MockBackend struct {
	infos   map[string]api.MemeInfo
	version string
	err     error
	panic   any
	fetches int
	mu      sync.Mutex
}

var _ BackendClient = (*MockBackend)(nil)

// NewMockBackend returns a backend serving infos at version.
func NewMockBackend(version string, infos map[string]api.MemeInfo) *MockBackend {
	return &MockBackend{version: version, infos: infos}
}

// Set replaces the served catalog and clears any configured failure.
func (m *MockBackend) Set(version string, infos map[string]api.MemeInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version, m.infos, m.err, m.panic = version, infos, nil, nil
}

// Fail makes every following fetch return err.
func (m *MockBackend) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Panic makes every following fetch panic with v.
func (m *MockBackend) Panic(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panic = v
}

// Fetches returns how many times FetchInfos was called.
func (m *MockBackend) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

func (m *MockBackend) FetchInfos(ctx context.Context) (map[string]api.MemeInfo, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.panic != nil {
		panic(m.panic)
	}
	if m.err != nil {
		return nil, "", m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return maps.Clone(m.infos), m.version, nil
}

// Info returns the served metadata of key, or a 404 error.
func (m *MockBackend) Info(ctx context.Context, key string) (api.MemeInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return api.MemeInfo{}, m.err
	}
	info, ok := m.infos[key]
	if !ok {
		return api.MemeInfo{}, &api.Error{Method: "GET", Path: "/memes/" + key + "/info", Code: api.CodeHTTPStatus, HTTPStatus: 404}
	}
	return info, nil
}

func (m *MockBackend) Generate(ctx context.Context, key string, req api.GenerateRequest) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.infos[key]; !ok {
		return nil, &api.Error{Method: "POST", Path: "/memes/" + key, Code: api.CodeHTTPStatus, HTTPStatus: 404}
	}
	return []byte(fmt.Sprintf("%s:%d:%d", key, len(req.Images), len(req.Texts))), nil
}

// MockBuilder implements command.Builder for testing. It builds a plain
// command per meme and can be told to fail or panic on one key.
type MockBuilder struct {
	FailOn  string
	PanicOn string
	Err     error

	built []string
	mu    sync.Mutex
}

var _ command.Builder = (*MockBuilder)(nil)

func (m *MockBuilder) Build(info api.MemeInfo) (*command.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PanicOn != "" && info.Key == m.PanicOn {
		panic("builder exploded on " + info.Key)
	}
	if m.FailOn != "" && info.Key == m.FailOn {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, fmt.Errorf("%w: %s", command.ErrInvalidInfo, info.Key)
	}
	m.built = append(m.built, info.Key)
	meme := info
	return &command.Command{Name: info.Key, Usage: command.Usage(info), Meme: &meme}, nil
}

// Built returns the keys built so far, in order.
func (m *MockBuilder) Built() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.built...)
}
