// Package memes runs the memes extension: it syncs the meme catalog from a
// meme-generator-rs backend, turns every meme into a chat command, and
// reports status to the host.
package memes

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/reglet-dev/reglet-memes/api"
	"github.com/reglet-dev/reglet-memes/command"
	"github.com/reglet-dev/reglet-memes/config"
	"github.com/reglet-dev/reglet-memes/locale"
	"github.com/reglet-dev/reglet-memes/metrics"
	"github.com/reglet-dev/reglet-memes/notify"
	"github.com/reglet-dev/reglet-memes/registry"
)

// PublicName is the host-wide name the read-only facade is published under.
const PublicName = "memesApi"

// ClientFactory creates the backend client for one activation.
type ClientFactory func(logger *slog.Logger) (BackendClient, error)

// BuilderFactory creates the command builder for one activation.
type BuilderFactory func(gen command.Generator, logger *slog.Logger) (command.Builder, error)

// Plugin drives activations of the extension. At most one activation is in
// flight; a new Apply tears the previous one down first.
type Plugin struct {
	newClient  ClientFactory
	newBuilder BuilderFactory
	registrar  command.Registrar
	services   registry.Publisher
	notifier   notify.Factory
	catalog    *locale.Catalog
	metrics    *metrics.Collector
	logger     *slog.Logger
	name       string

	mu      sync.Mutex
	current *state
	last    *Activation
	phase   atomic.Int32
}

// PluginOption configures a Plugin.
type PluginOption func(*Plugin)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PluginOption {
	return func(p *Plugin) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClientFactory sets how the backend client is built.
func WithClientFactory(f ClientFactory) PluginOption {
	return func(p *Plugin) { p.newClient = f }
}

// WithClient uses c for every activation.
func WithClient(c BackendClient) PluginOption {
	return WithClientFactory(func(*slog.Logger) (BackendClient, error) { return c, nil })
}

// WithBuilderFactory sets how the command builder is built.
func WithBuilderFactory(f BuilderFactory) PluginOption {
	return func(p *Plugin) { p.newBuilder = f }
}

// WithBuilder uses b for every activation.
func WithBuilder(b command.Builder) PluginOption {
	return WithBuilderFactory(func(command.Generator, *slog.Logger) (command.Builder, error) { return b, nil })
}

// WithRegistrar sets the host command surface.
func WithRegistrar(r command.Registrar) PluginOption {
	return func(p *Plugin) { p.registrar = r }
}

// WithServices sets the host publish surface.
func WithServices(s registry.Publisher) PluginOption {
	return func(p *Plugin) { p.services = s }
}

// WithNotifierFactory sets how the status handle of each activation is
// created. Hosts without a status surface can omit it.
func WithNotifierFactory(f notify.Factory) PluginOption {
	return func(p *Plugin) { p.notifier = f }
}

// WithNotifier sends the status of every activation to n. n is never
// disposed by the plugin.
func WithNotifier(n notify.Notifier) PluginOption {
	return WithNotifierFactory(notify.Shared(n))
}

// WithLocale sets the message catalog.
func WithLocale(c *locale.Catalog) PluginOption {
	return func(p *Plugin) { p.catalog = c }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) PluginOption {
	return func(p *Plugin) { p.metrics = m }
}

// WithCommandName sets the name of the top-level command.
func WithCommandName(name string) PluginOption {
	return func(p *Plugin) {
		if name != "" {
			p.name = name
		}
	}
}

// New creates a Plugin. Unset collaborators get in-process defaults: a
// memory registrar, a private service registry, no notifier, and a client
// for config.DefaultEndpoint.
func New(opts ...PluginOption) *Plugin {
	p := &Plugin{
		logger: slog.Default(),
		name:   config.DefaultCommandName,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.newClient == nil {
		p.newClient = func(logger *slog.Logger) (BackendClient, error) {
			return api.New(config.DefaultEndpoint, api.WithLogger(logger))
		}
	}
	if p.newBuilder == nil {
		p.newBuilder = func(gen command.Generator, logger *slog.Logger) (command.Builder, error) {
			return command.NewMemeBuilder(gen, command.WithBuilderLogger(logger))
		}
	}
	if p.registrar == nil {
		p.registrar = command.NewMemoryRegistrar()
	}
	if p.services == nil {
		p.services = registry.NewServices()
	}
	if p.notifier == nil {
		p.notifier = func() notify.Notifier { return notify.Nop{} }
	}
	if p.catalog == nil {
		p.catalog = locale.MustLoad(locale.Fallback)
	}
	if p.metrics == nil {
		p.metrics = metrics.Unregistered()
	}
	return p
}

// FromConfig creates a Plugin whose client, builder, locale and command name
// follow cfg. opts are applied after, so they can override any of them.
func FromConfig(cfg *config.Config, opts ...PluginOption) (*Plugin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog, err := locale.Load(cfg.Locale)
	if err != nil {
		return nil, err
	}

	base := []PluginOption{
		WithLocale(catalog),
		WithCommandName(cfg.CommandName),
		WithClientFactory(func(logger *slog.Logger) (BackendClient, error) {
			return api.New(cfg.Request.Endpoint, append(cfg.ClientOptions(), api.WithLogger(logger))...)
		}),
		WithBuilderFactory(func(gen command.Generator, logger *slog.Logger) (command.Builder, error) {
			return command.NewMemeBuilder(gen, append(cfg.BuilderOptions(), command.WithBuilderLogger(logger))...)
		}),
	}
	return New(append(base, opts...)...), nil
}

// Phase returns the phase of the current activation.
func (p *Plugin) Phase() Phase {
	return Phase(p.phase.Load())
}

// Registrar returns the host command surface.
func (p *Plugin) Registrar() command.Registrar {
	return p.registrar
}

// Services returns the host publish surface.
func (p *Plugin) Services() registry.Publisher {
	return p.services
}

// Public returns the published facade while the plugin is Active.
func (p *Plugin) Public() (Public, bool) {
	return registry.LookupAs[Public](p.services, PublicName)
}

// LastActivation returns the result of the most recent Apply.
func (p *Plugin) LastActivation() *Activation {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil
	}
	act := *p.last
	return &act
}

func (p *Plugin) setPhase(act *Activation, phase Phase) {
	act.Phase = phase
	p.phase.Store(int32(phase))
}
