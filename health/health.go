// Package health exposes liveness and readiness endpoints for a running
// extension.
package health

import (
	"fmt"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"

	memes "github.com/reglet-dev/reglet-memes"
	"github.com/reglet-dev/reglet-memes/netutil"
)

// PhaseSource reports the current activation phase. *memes.Plugin
// implements it.
type PhaseSource interface {
	Phase() memes.Phase
}

// Option configures the handler.
type Option func(*options)

type options struct {
	registerer     prometheus.Registerer
	backendURL     string
	backendTimeout time.Duration
	maxGoroutines  int
}

// WithRegisterer exports every check result as a gauge on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithBackendCheck adds a readiness check that the backend answers its
// version route within timeout.
func WithBackendCheck(endpoint string, timeout time.Duration) Option {
	return func(o *options) {
		o.backendURL = endpoint
		if timeout > 0 {
			o.backendTimeout = timeout
		}
	}
}

// WithMaxGoroutines sets the liveness goroutine threshold.
func WithMaxGoroutines(n int) Option {
	return func(o *options) { o.maxGoroutines = n }
}

// New returns a handler serving /live and /ready. Readiness fails unless the
// activation is Active.
func New(src PhaseSource, opts ...Option) (healthcheck.Handler, error) {
	o := options{
		backendTimeout: 2 * time.Second,
		maxGoroutines:  10000,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var h healthcheck.Handler
	if o.registerer != nil {
		h = healthcheck.NewMetricsHandler(o.registerer, "memes")
	} else {
		h = healthcheck.NewHandler()
	}

	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(o.maxGoroutines))
	h.AddReadinessCheck("activation", ActivationCheck(src))

	if o.backendURL != "" {
		u, err := versionURL(o.backendURL)
		if err != nil {
			return nil, err
		}
		h.AddReadinessCheck("backend", healthcheck.HTTPGetCheck(u, o.backendTimeout))
	}
	return h, nil
}

// ActivationCheck fails while src is not Active.
func ActivationCheck(src PhaseSource) healthcheck.Check {
	return func() error {
		if phase := src.Phase(); phase != memes.PhaseActive {
			return fmt.Errorf("activation is %s", phase)
		}
		return nil
	}
}

func versionURL(endpoint string) (string, error) {
	base, err := netutil.ParseEndpoint(endpoint)
	if err != nil {
		return "", fmt.Errorf("backend check: %w", err)
	}
	return netutil.JoinPath(base, "meme", "version"), nil
}
