package memes

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"

	"github.com/reglet-dev/reglet-memes/api"
	"github.com/reglet-dev/reglet-memes/command"
	"github.com/reglet-dev/reglet-memes/locale"
	"github.com/reglet-dev/reglet-memes/notify"
)

// BackendClient is the backend API the extension needs. *api.Client
// implements it.
type BackendClient interface {
	// FetchInfos returns the meme catalog and the backend version from one
	// metadata fetch. It returns no partial results.
	FetchInfos(ctx context.Context) (map[string]api.MemeInfo, string, error)

	command.Generator
}

var _ BackendClient = (*api.Client)(nil)

// state is the private per-activation container. Only the orchestrator and
// the sync stages write it; everything else sees Public.
type state struct {
	client    BackendClient
	builder   command.Builder
	registrar command.Registrar
	reporter  *notify.Reporter
	catalog   *locale.Catalog
	logger    *slog.Logger
	name      string

	mu      sync.RWMutex
	infos   map[string]api.MemeInfo
	version string

	// cmdMu serializes dispose-and-rebuild of the command tree.
	cmdMu    sync.Mutex
	base     *command.Root
	cmd      *command.Root
	closed   bool
	withdraw func()
}

// snapshot returns the committed catalog and version. The map must not be
// modified.
func (s *state) snapshot() (map[string]api.MemeInfo, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infos, s.version
}

func (s *state) info(key string) (api.MemeInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.infos[key]
	return info, ok
}

// generatePath is where the generate tree is registered.
func (s *state) generatePath() string {
	return command.JoinPath(s.name, "generate")
}

// disposeCommands releases the generate tree and the base commands and closes
// the state for further registration. Failures are logged and returned
// joined.
func (s *state) disposeCommands() error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	var errs []error
	if s.cmd != nil {
		if err := s.cmd.Dispose(); err != nil {
			s.logger.Warn("disposing generate commands", "error", err)
			errs = append(errs, err)
		}
		s.cmd = nil
	}
	s.closed = true
	if s.base != nil {
		if err := s.base.Dispose(); err != nil {
			s.logger.Warn("disposing base commands", "error", err)
			errs = append(errs, err)
		}
		s.base = nil
	}
	return errors.Join(errs...)
}

func (s *state) commandCount() int {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	if s.cmd == nil {
		return 0
	}
	return len(s.cmd.Children())
}

// Public is the read-only view published to other extensions once the
// activation is Active.
type Public struct {
	s *state
}

// API returns the backend client.
func (p Public) API() BackendClient {
	return p.s.client
}

// APIVersion returns the backend version of the current snapshot.
func (p Public) APIVersion() string {
	_, v := p.s.snapshot()
	return v
}

// Infos returns a copy of the current meme catalog.
func (p Public) Infos() map[string]api.MemeInfo {
	infos, _ := p.s.snapshot()
	return maps.Clone(infos)
}
