package memes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/reglet-dev/reglet-memes/api"
	"github.com/reglet-dev/reglet-memes/command"
	"github.com/reglet-dev/reglet-memes/notify"
)

// ErrNotActive is returned by Resync when there is no Active activation.
var ErrNotActive = errors.New("plugin is not active")

// Activation is the outcome of one Apply.
type Activation struct {
	ID        string
	Phase     Phase
	Err       error
	Version   string
	Loaded    int
	Commands  int
	VersionOK bool
	Started   time.Time
	Finished  time.Time
}

// NotFound reports whether the activation failed because the backend
// answered 404, which usually means it is not meme-generator-rs.
func (a *Activation) NotFound() bool {
	return a.Phase == PhaseSyncFailed && api.IsNotFound(a.Err)
}

// Apply runs one activation to a terminal phase. It never panics and never
// retries: failures end in SyncFailed or RegistrationFailed and leave the
// extension loaded but inert. A previous activation is torn down first.
func (p *Plugin) Apply(ctx context.Context) *Activation {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.teardownLocked(); err != nil {
		p.logger.Warn("tearing down previous activation", "error", err)
	}

	act := &Activation{ID: uuid.NewString(), Started: time.Now()}
	logger := p.logger.With("activation", act.ID)
	reporter := notify.NewReporter(p.acquireNotifier(logger), p.catalog)
	defer func() {
		act.Finished = time.Now()
		p.last = act
		p.metrics.Activation(act.Phase.String())
	}()

	p.setPhase(act, PhaseStarting)
	reporter.Initializing()

	s := &state{
		registrar: p.registrar,
		reporter:  reporter,
		catalog:   p.catalog,
		logger:    logger,
		name:      p.name,
	}
	p.current = s

	p.setPhase(act, PhaseSyncingBackend)
	err := guard(func() error {
		client, err := p.newClient(logger)
		if err != nil {
			return fmt.Errorf("creating backend client: %w", err)
		}
		s.client = client
		return s.updateInfos(ctx)
	})
	if err != nil {
		act.Err = err
		notFound := api.IsNotFound(err)
		logger.Warn("failed to fetch data from backend, plugin will not work",
			"error", err,
			"status", api.HTTPStatus(err),
			"not_found", notFound)
		reporter.SyncFailed(notFound)
		p.setPhase(act, PhaseSyncFailed)
		return act
	}
	p.setPhase(act, PhaseBackendSynced)

	p.setPhase(act, PhaseRegisteringCommands)
	if err := guard(func() error { return p.register(ctx, s) }); err != nil {
		act.Err = err
		_ = s.disposeCommands()
		logger.Warn("failed to register commands, plugin will not work", "error", err)
		reporter.RegistrationFailed()
		p.setPhase(act, PhaseRegistrationFailed)
		return act
	}

	withdraw, err := p.services.Publish(PublicName, Public{s: s})
	if err != nil {
		act.Err = err
		_ = s.disposeCommands()
		logger.Warn("failed to publish the memes API, plugin will not work", "error", err)
		reporter.RegistrationFailed()
		p.setPhase(act, PhaseRegistrationFailed)
		return act
	}
	s.withdraw = withdraw

	p.ready(act, s)
	p.setPhase(act, PhaseActive)
	return act
}

// acquireNotifier creates this activation's status handle. A failing factory
// leaves the activation without one.
func (p *Plugin) acquireNotifier(logger *slog.Logger) notify.Notifier {
	var n notify.Notifier
	if err := guard(func() error {
		n = p.notifier()
		return nil
	}); err != nil {
		logger.Warn("creating notifier", "error", err)
		return nil
	}
	return n
}

// register builds the base commands, the generate tree and its shortcuts.
func (p *Plugin) register(ctx context.Context, s *state) error {
	builder, err := p.newBuilder(s.client, s.logger)
	if err != nil {
		return fmt.Errorf("creating command builder: %w", err)
	}
	s.builder = builder

	if err := s.registerBaseCommands(); err != nil {
		return err
	}
	if err := s.reRegisterGenerateCommands(ctx); err != nil {
		return err
	}
	return s.refreshShortcuts(ctx)
}

// ready records and reports a committed, registered snapshot.
func (p *Plugin) ready(act *Activation, s *state) {
	infos, version := s.snapshot()
	act.Version = version
	act.Loaded = len(infos)
	act.Commands = s.commandCount()
	act.VersionOK = VersionMeets(version, MinVersion)

	p.metrics.Synced(version, act.Loaded, act.VersionOK)
	p.metrics.Commands(act.Commands)
	s.reporter.Ready(version, act.Loaded, act.VersionOK, MinVersionString())
	s.logger.Info("plugin initialized", "version", version, "memes", act.Loaded, "commands", act.Commands)
	if !act.VersionOK {
		s.logger.Warn("backend is older than the supported minimum", "version", version, "min", MinVersionString())
	}
}

// Resync fetches the catalog again and rebuilds the generate commands of the
// Active activation. A failed fetch keeps the current snapshot and commands.
// A failed rebuild leaves the activation in RegistrationFailed.
func (p *Plugin) Resync(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.current
	if s == nil || p.Phase() != PhaseActive || p.last == nil {
		return ErrNotActive
	}
	act := p.last

	if err := guard(func() error { return s.updateInfos(ctx) }); err != nil {
		s.logger.Warn("resync: failed to fetch data from backend, keeping the current snapshot", "error", err)
		return err
	}

	err := guard(func() error {
		if err := s.reRegisterGenerateCommands(ctx); err != nil {
			return err
		}
		return s.refreshShortcuts(ctx)
	})
	if err != nil {
		act.Err = err
		if s.withdraw != nil {
			s.withdraw()
			s.withdraw = nil
		}
		_ = s.disposeCommands()
		p.metrics.Reset()
		s.logger.Warn("resync: failed to register commands, plugin will not work", "error", err)
		s.reporter.RegistrationFailed()
		p.setPhase(act, PhaseRegistrationFailed)
		return err
	}

	p.ready(act, s)
	return nil
}

// Dispose tears down the current activation: the published facade, all
// commands, and the notifier. It is safe to call more than once.
func (p *Plugin) Dispose() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.teardownLocked()
}

func (p *Plugin) teardownLocked() error {
	s := p.current
	if s == nil {
		return nil
	}
	p.current = nil

	if s.withdraw != nil {
		s.withdraw()
		s.withdraw = nil
	}
	err := s.disposeCommands()
	s.reporter.Dispose()
	p.metrics.Reset()
	p.phase.Store(int32(PhaseIdle))
	s.logger.Debug("activation disposed")
	return err
}

// guard runs fn and turns a panic into a *command.PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &command.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
