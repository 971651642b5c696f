package memes

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/reglet-dev/reglet-memes/command"
)

// updateInfos fetches the catalog and version and commits both together.
// A failed fetch leaves the previous snapshot in place and returns the
// client's error as is.
func (s *state) updateInfos(ctx context.Context) error {
	infos, version, err := s.client.FetchInfos(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.infos = infos
	s.version = version
	s.mu.Unlock()

	s.logger.Debug("backend snapshot committed", "version", version, "memes", len(infos))
	return nil
}

// reRegisterGenerateCommands replaces the generate tree with one built from
// the current snapshot. The old tree is gone before the first new command is
// registered. On error the partial tree stays in s.cmd for the caller to
// dispose.
func (s *state) reRegisterGenerateCommands(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if s.cmd != nil {
		old := s.cmd
		s.cmd = nil
		if err := old.Dispose(); err != nil {
			s.logger.Warn("disposing previous generate commands", "error", err)
		}
	}
	if s.closed {
		return command.ErrDisposed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	root, err := command.NewRoot(s.registrar, s.name, &command.Command{
		Name:        "generate",
		Description: s.catalog.Text("commands.generate.description", nil),
	})
	if err != nil {
		return err
	}
	s.cmd = root

	infos, _ := s.snapshot()
	skipped := 0
	for _, key := range slices.Sorted(maps.Keys(infos)) {
		cmd, err := s.builder.Build(infos[key])
		if errors.Is(err, command.ErrSkipped) {
			skipped++
			continue
		}
		if err != nil {
			s.logger.Debug("building command failed", "meme", key, "error", err)
			return err
		}
		if err := root.Add(cmd); err != nil {
			return err
		}
	}

	s.logger.Debug("generate commands registered", "commands", len(root.Children()), "skipped", skipped)
	return nil
}

// refreshShortcuts derives shortcuts onto the current generate tree. It is a
// no-op for builders without shortcut support.
func (s *state) refreshShortcuts(ctx context.Context) error {
	d, ok := s.builder.(command.ShortcutDeriver)
	if !ok {
		return nil
	}

	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if s.cmd == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.DeriveShortcuts(s.cmd)
}
