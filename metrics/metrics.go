// Package metrics exposes activation state as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "memes"

// Collector records activation outcomes and the synced backend state.
type Collector struct {
	activations *prometheus.CounterVec
	loaded      prometheus.Gauge
	backend     *prometheus.GaugeVec
	commands    prometheus.Gauge
}

// New creates a Collector and registers it on reg. Registering twice on the
// same registry reuses the existing collectors. A nil reg behaves like
// Unregistered.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := Unregistered()
	if reg == nil {
		return c, nil
	}
	var err error
	if c.activations, err = register(reg, c.activations); err != nil {
		return nil, err
	}
	if c.loaded, err = register(reg, c.loaded); err != nil {
		return nil, err
	}
	if c.backend, err = register(reg, c.backend); err != nil {
		return nil, err
	}
	if c.commands, err = register(reg, c.commands); err != nil {
		return nil, err
	}
	return c, nil
}

// Unregistered creates a Collector no registry gathers from. It records
// like any other Collector.
func Unregistered() *Collector {
	return &Collector{
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Activation attempts by final phase.",
		}, []string{"outcome"}),
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loaded",
			Help:      "Memes in the current backend snapshot.",
		}),
		backend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_info",
			Help:      "Backend version of the current snapshot, value is 1 when it meets the minimum.",
		}, []string{"version"}),
		commands: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generate_commands",
			Help:      "Generate commands currently registered.",
		}),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, fmt.Errorf("registering metrics: %w", err)
	}
	return col, nil
}

// Activation counts one finished activation.
func (c *Collector) Activation(outcome string) {
	c.activations.WithLabelValues(outcome).Inc()
}

// Synced records a committed backend snapshot.
func (c *Collector) Synced(version string, count int, versionOK bool) {
	c.loaded.Set(float64(count))
	c.backend.Reset()
	v := 0.0
	if versionOK {
		v = 1
	}
	c.backend.WithLabelValues(version).Set(v)
}

// Commands records how many generate commands are registered.
func (c *Collector) Commands(n int) {
	c.commands.Set(float64(n))
}

// Reset clears the snapshot gauges on teardown.
func (c *Collector) Reset() {
	c.loaded.Set(0)
	c.commands.Set(0)
	c.backend.Reset()
}
