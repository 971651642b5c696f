package command

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Registrar is the host's command surface.
type Registrar interface {
	// Register adds cmd beneath the command at parent ("" for top level).
	Register(parent string, cmd *Command) (Handle, error)

	// RegisterShortcut adds a message pattern that invokes s.Target.
	RegisterShortcut(s Shortcut) (Handle, error)
}

// MemoryRegistrar is an in-process Registrar. It backs the CLI and tests.
type MemoryRegistrar struct {
	commands  map[string]*Command
	shortcuts map[int]Shortcut
	mu        sync.RWMutex
	nextID    int
}

// NewMemoryRegistrar creates an empty registrar.
func NewMemoryRegistrar() *MemoryRegistrar {
	return &MemoryRegistrar{
		commands:  make(map[string]*Command),
		shortcuts: make(map[int]Shortcut),
	}
}

// Register implements Registrar.
func (m *MemoryRegistrar) Register(parent string, cmd *Command) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if parent != "" {
		if _, ok := m.commands[parent]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParent, parent)
		}
	}
	path := JoinPath(parent, cmd.Name)
	if _, exists := m.commands[path]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, path)
	}
	m.commands[path] = cmd

	return HandleFunc(func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.commands[path] == cmd {
			delete(m.commands, path)
		}
		return nil
	}), nil
}

// RegisterShortcut implements Registrar.
func (m *MemoryRegistrar) RegisterShortcut(s Shortcut) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.commands[s.Target]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParent, s.Target)
	}
	id := m.nextID
	m.nextID++
	m.shortcuts[id] = s

	return HandleFunc(func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.shortcuts, id)
		return nil
	}), nil
}

// Paths returns every registered command path, sorted.
func (m *MemoryRegistrar) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.commands))
	for p := range m.commands {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Lookup returns the command registered at path.
func (m *MemoryRegistrar) Lookup(path string) (*Command, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cmd, ok := m.commands[path]
	return cmd, ok
}

// Shortcuts returns the registered shortcuts in registration order.
func (m *MemoryRegistrar) Shortcuts() []Shortcut {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int, 0, len(m.shortcuts))
	for id := range m.shortcuts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Shortcut, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.shortcuts[id])
	}
	return out
}

// Resolve returns the command at path. When nothing is registered there, the
// last name of path may be an alias of a sibling command.
func (m *MemoryRegistrar) Resolve(path string) (*Command, bool) {
	if cmd, ok := m.Lookup(path); ok {
		return cmd, true
	}

	parent, name := SplitPath(path)
	for _, p := range m.Paths() {
		if pp, _ := SplitPath(p); pp != parent {
			continue
		}
		if cmd, ok := m.Lookup(p); ok && slices.Contains(cmd.Aliases, name) {
			return cmd, true
		}
	}
	return nil, false
}

// Execute runs the command at path or at an alias of it.
func (m *MemoryRegistrar) Execute(ctx context.Context, path string, inv *Invocation) (*Reply, error) {
	cmd, ok := m.Resolve(path)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", path)
	}
	if cmd.Action == nil {
		return &Reply{Text: cmd.Usage}, nil
	}
	if inv == nil {
		inv = &Invocation{}
	}
	return cmd.Action(ctx, inv)
}

// Dispatch runs the first shortcut matching text. It reports false when no
// shortcut matched.
func (m *MemoryRegistrar) Dispatch(ctx context.Context, text string) (*Reply, bool, error) {
	for _, s := range m.Shortcuts() {
		inv, ok := s.Match(text)
		if !ok {
			continue
		}
		reply, err := m.Execute(ctx, s.Target, inv)
		return reply, true, err
	}
	return nil, false, nil
}
