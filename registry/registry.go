// Package registry implements a host-wide registry of named services.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrAlreadyPublished is returned when a name is taken.
var ErrAlreadyPublished = errors.New("service already published")

// Services implements Publisher using in-memory storage.
type Services struct {
	entries  map[string]*entry
	onChange func(name string, published bool)
	mu       sync.RWMutex
}

type entry struct {
	value any
}

// ServicesOption configures Services.
type ServicesOption func(*Services)

// WithOnChange registers a callback run after every publish and withdraw.
func WithOnChange(fn func(name string, published bool)) ServicesOption {
	return func(s *Services) {
		s.onChange = fn
	}
}

var _ Publisher = (*Services)(nil)

// NewServices creates an empty registry.
func NewServices(opts ...ServicesOption) *Services {
	s := &Services{
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish implements Publisher. Withdrawing twice, or after the name was
// republished by someone else, is a no-op.
func (s *Services) Publish(name string, v any) (func(), error) {
	if name == "" {
		return nil, errors.New("service name is empty")
	}
	if v == nil {
		return nil, fmt.Errorf("service %s: nil value", name)
	}

	s.mu.Lock()
	if _, exists := s.entries[name]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPublished, name)
	}
	e := &entry{value: v}
	s.entries[name] = e
	s.mu.Unlock()
	s.notify(name, true)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			owned := s.entries[name] == e
			if owned {
				delete(s.entries, name)
			}
			s.mu.Unlock()
			if owned {
				s.notify(name, false)
			}
		})
	}, nil
}

// Lookup implements Publisher.
func (s *Services) Lookup(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// List implements Publisher.
func (s *Services) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for k := range s.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupAs returns the value under name if it has type T.
func LookupAs[T any](p Publisher, name string) (T, bool) {
	var zero T
	v, ok := p.Lookup(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

func (s *Services) notify(name string, published bool) {
	if s.onChange != nil {
		s.onChange(name, published)
	}
}
