package memes

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/reglet-dev/reglet-memes/api"
	"github.com/reglet-dev/reglet-memes/command"
)

// registerBaseCommands registers the top-level command with its list and
// info subcommands. The generate tree hangs below it.
func (s *state) registerBaseCommands() error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if s.closed {
		return command.ErrDisposed
	}
	if s.base != nil {
		return nil
	}

	root, err := command.NewRoot(s.registrar, "", &command.Command{
		Name:        s.name,
		Description: s.catalog.Text("commands.memes.description", nil),
	})
	if err != nil {
		return err
	}
	s.base = root

	subcommands := []*command.Command{
		{
			Name:        "list",
			Description: s.catalog.Text("commands.list.description", nil),
			Usage:       "list",
			Action:      s.wrap("list", s.listMemes),
		},
		{
			Name:        "info",
			Description: s.catalog.Text("commands.info.description", nil),
			Usage:       "info <key|keyword>",
			Action:      s.wrap("info", s.showInfo),
		},
	}
	for _, cmd := range subcommands {
		if err := root.Add(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) wrap(name string, a command.Action) command.Action {
	return command.Chain(a, command.RecoverMiddleware(), command.LoggingMiddleware(s.logger, command.JoinPath(s.name, name)))
}

func (s *state) listMemes(_ context.Context, _ *command.Invocation) (*command.Reply, error) {
	infos, _ := s.snapshot()

	lines := []string{s.catalog.Text("commands.list.header", map[string]any{"count": len(infos)})}
	for _, key := range slices.Sorted(maps.Keys(infos)) {
		line := key
		if kw := infos[key].Keywords; len(kw) > 0 {
			line += " (" + strings.Join(kw, "/") + ")"
		}
		lines = append(lines, line)
	}
	return &command.Reply{Text: strings.Join(lines, "\n")}, nil
}

func (s *state) showInfo(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
	if len(inv.Args) == 0 {
		return nil, errors.New("usage: info <key|keyword>")
	}
	query := inv.Args[0]

	info, ok, err := s.lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &command.Reply{Text: s.catalog.Text("commands.info.not-found", map[string]any{"key": query})}, nil
	}

	lines := []string{command.Usage(info)}
	if len(info.Keywords) > 0 {
		lines = append(lines, s.catalog.Text("commands.info.keywords", map[string]any{"keywords": strings.Join(info.Keywords, ", ")}))
	}
	if len(info.Tags) > 0 {
		lines = append(lines, s.catalog.Text("commands.info.tags", map[string]any{"tags": strings.Join(info.Tags, ", ")}))
	}
	return &command.Reply{Text: strings.Join(lines, "\n")}, nil
}

// infoFetcher is implemented by clients that can fetch one meme's metadata.
type infoFetcher interface {
	Info(ctx context.Context, key string) (api.MemeInfo, error)
}

// lookup finds a meme by key, then by keyword in the snapshot. A key the
// snapshot lacks is asked of the backend, which may have added it since.
func (s *state) lookup(ctx context.Context, query string) (api.MemeInfo, bool, error) {
	if info, ok := s.info(query); ok {
		return info, true, nil
	}
	infos, _ := s.snapshot()
	for _, key := range slices.Sorted(maps.Keys(infos)) {
		if slices.Contains(infos[key].Keywords, query) {
			return infos[key], true, nil
		}
	}

	f, ok := s.client.(infoFetcher)
	if !ok {
		return api.MemeInfo{}, false, nil
	}
	info, err := f.Info(ctx, query)
	switch {
	case api.IsNotFound(err):
		return api.MemeInfo{}, false, nil
	case err != nil:
		return api.MemeInfo{}, false, err
	}
	return info, true, nil
}
