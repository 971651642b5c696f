// Package command models the chat commands generated from backend meme
// metadata: the command tree, its disposable root handle, the host
// registrar the tree is registered into, and the builder that turns one
// meme into one command.
package command

import (
	"context"
	"errors"
	"strings"

	"github.com/reglet-dev/reglet-memes/api"
)

var (
	// ErrInvalidInfo is returned by a Builder for metadata it cannot turn
	// into a command.
	ErrInvalidInfo = errors.New("invalid meme info")

	// ErrSkipped is returned by a Builder for memes excluded by configuration.
	ErrSkipped = errors.New("meme disabled by configuration")

	// ErrDisposed is returned when registering into a disposed Root.
	ErrDisposed = errors.New("command root already disposed")

	// ErrDuplicate is returned by a Registrar for an already registered path.
	ErrDuplicate = errors.New("command already registered")

	// ErrUnknownParent is returned by a Registrar when the parent path does
	// not exist.
	ErrUnknownParent = errors.New("parent command not registered")
)

// Invocation carries the arguments of one command call.
type Invocation struct {
	Args    []string
	Images  []api.Image
	Options map[string]any
}

// Reply is what a command sends back to the chat.
type Reply struct {
	Text  string
	Image []byte
}

// Action executes a command.
type Action func(ctx context.Context, inv *Invocation) (*Reply, error)

// Command is one invocable chat command.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Action      Action

	// Meme is the metadata the command was built from; nil for commands that
	// are not bound to a single meme.
	Meme *api.MemeInfo
}

// Handle is a host registration that can be released.
type Handle interface {
	Dispose() error
}

// HandleFunc adapts a function to Handle.
type HandleFunc func() error

// Dispose calls f.
func (f HandleFunc) Dispose() error {
	return f()
}

// JoinPath joins command names into a dotted command path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// SplitPath returns the parent path and the last name of path.
func SplitPath(path string) (parent, name string) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
