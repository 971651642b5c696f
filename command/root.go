package command

import (
	"errors"
	"fmt"
	"sync"
)

// Root owns one registered command and everything registered beneath it.
// Disposing the Root releases all of it, shortcuts included, in reverse
// registration order. A disposed Root cannot be reused.
type Root struct {
	registrar Registrar
	path      string
	command   *Command
	children  []*Command
	shortcuts []Shortcut
	handles   []Handle
	mu        sync.Mutex
	disposed  bool
}

// NewRoot registers cmd under parent and returns the Root owning it.
func NewRoot(registrar Registrar, parent string, cmd *Command) (*Root, error) {
	h, err := registrar.Register(parent, cmd)
	if err != nil {
		return nil, fmt.Errorf("registering %q: %w", JoinPath(parent, cmd.Name), err)
	}
	return &Root{
		registrar: registrar,
		path:      JoinPath(parent, cmd.Name),
		command:   cmd,
		handles:   []Handle{h},
	}, nil
}

// Path returns the dotted path of the root command.
func (r *Root) Path() string {
	return r.path
}

// Command returns the root command itself.
func (r *Root) Command() *Command {
	return r.command
}

// Add registers cmd as a direct child of the root command.
func (r *Root) Add(cmd *Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return ErrDisposed
	}
	h, err := r.registrar.Register(r.path, cmd)
	if err != nil {
		return fmt.Errorf("registering %q: %w", JoinPath(r.path, cmd.Name), err)
	}
	r.children = append(r.children, cmd)
	r.handles = append(r.handles, h)
	return nil
}

// AddShortcut registers s, which must target a command under this root.
func (r *Root) AddShortcut(s Shortcut) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return ErrDisposed
	}
	h, err := r.registrar.RegisterShortcut(s)
	if err != nil {
		return fmt.Errorf("registering shortcut %q: %w", s.Name, err)
	}
	r.shortcuts = append(r.shortcuts, s)
	r.handles = append(r.handles, h)
	return nil
}

// Children returns the commands registered under the root.
func (r *Root) Children() []*Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Command, len(r.children))
	copy(out, r.children)
	return out
}

// Shortcuts returns the shortcuts registered under the root.
func (r *Root) Shortcuts() []Shortcut {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Shortcut, len(r.shortcuts))
	copy(out, r.shortcuts)
	return out
}

// Disposed reports whether Dispose has been called.
func (r *Root) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// Dispose releases every registration. It keeps going past individual
// failures and returns them joined. Calling it again is a no-op.
func (r *Root) Dispose() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return nil
	}
	r.disposed = true

	var errs []error
	for i := len(r.handles) - 1; i >= 0; i-- {
		if err := r.handles[i].Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	r.handles = nil
	return errors.Join(errs...)
}
