package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reglet-dev/reglet-memes/api"
)

// Builder turns one meme into one command.
type Builder interface {
	Build(info api.MemeInfo) (*Command, error)
}

// ShortcutDeriver is implemented by builders that can attach message
// shortcuts to an already built command tree.
type ShortcutDeriver interface {
	DeriveShortcuts(root *Root) error
}

// Generator renders a meme. *api.Client implements it.
type Generator interface {
	Generate(ctx context.Context, key string, req api.GenerateRequest) ([]byte, error)
}

// BuilderOption configures a MemeBuilder.
type BuilderOption func(*MemeBuilder)

// WithDisabled excludes memes whose key matches any of the glob patterns.
func WithDisabled(patterns ...string) BuilderOption {
	return func(b *MemeBuilder) {
		b.disabled = append(b.disabled, patterns...)
	}
}

// WithShortcuts enables DeriveShortcuts.
func WithShortcuts(enabled bool) BuilderOption {
	return func(b *MemeBuilder) {
		b.shortcuts = enabled
	}
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(b *MemeBuilder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMiddleware wraps every built Action with mws, after the builder's own
// panic recovery and logging.
func WithMiddleware(mws ...Middleware) BuilderOption {
	return func(b *MemeBuilder) {
		b.middleware = append(b.middleware, mws...)
	}
}

// MemeBuilder builds generate commands that render through a Generator.
type MemeBuilder struct {
	generator  Generator
	logger     *slog.Logger
	disabled   []string
	middleware []Middleware
	shortcuts  bool
}

var (
	_ Builder         = (*MemeBuilder)(nil)
	_ ShortcutDeriver = (*MemeBuilder)(nil)
)

// NewMemeBuilder creates a builder. It fails on malformed disable patterns.
func NewMemeBuilder(gen Generator, opts ...BuilderOption) (*MemeBuilder, error) {
	b := &MemeBuilder{
		generator: gen,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, p := range b.disabled {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid disabled meme pattern %q", p)
		}
	}
	return b, nil
}

// Disabled reports whether key is excluded by configuration.
func (b *MemeBuilder) Disabled(key string) bool {
	for _, p := range b.disabled {
		if ok, _ := doublestar.Match(p, key); ok {
			return true
		}
	}
	return false
}

// Build implements Builder.
func (b *MemeBuilder) Build(info api.MemeInfo) (*Command, error) {
	if info.Key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidInfo)
	}
	if b.Disabled(info.Key) {
		return nil, fmt.Errorf("%s: %w", info.Key, ErrSkipped)
	}
	if err := validateParams(info.Params); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInfo, info.Key, err)
	}

	meme := info
	return &Command{
		Name:        info.Key,
		Aliases:     aliases(info),
		Description: description(info),
		Usage:       Usage(info),
		Action:      b.wrap(info.Key, b.generate(&meme)),
		Meme:        &meme,
	}, nil
}

// DeriveShortcuts implements ShortcutDeriver. Patterns the regexp engine
// rejects are skipped with a warning; registration failures are returned.
func (b *MemeBuilder) DeriveShortcuts(root *Root) error {
	if !b.shortcuts {
		return nil
	}

	for _, cmd := range root.Children() {
		if cmd.Meme == nil {
			continue
		}
		target := JoinPath(root.Path(), cmd.Name)
		for _, s := range cmd.Meme.Shortcuts {
			shortcut, err := CompileShortcut(target, s)
			if err != nil {
				b.logger.Warn("skipping meme shortcut", "meme", cmd.Name, "error", err)
				continue
			}
			if err := root.AddShortcut(shortcut); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *MemeBuilder) wrap(name string, a Action) Action {
	mws := append([]Middleware{RecoverMiddleware(), LoggingMiddleware(b.logger, name)}, b.middleware...)
	return Chain(a, mws...)
}

func (b *MemeBuilder) generate(info *api.MemeInfo) Action {
	return func(ctx context.Context, inv *Invocation) (*Reply, error) {
		if b.generator == nil {
			return nil, errors.New("no meme generator configured")
		}

		texts := inv.Args
		if len(texts) == 0 {
			texts = info.Params.DefaultTexts
		}
		p := info.Params
		if n := len(texts); n < p.MinTexts || n > p.MaxTexts {
			return nil, fmt.Errorf("%s takes %s texts, got %d", info.Key, countRange(p.MinTexts, p.MaxTexts), n)
		}
		if n := len(inv.Images); n < p.MinImages || n > p.MaxImages {
			return nil, fmt.Errorf("%s takes %s images, got %d", info.Key, countRange(p.MinImages, p.MaxImages), n)
		}

		img, err := b.generator.Generate(ctx, info.Key, api.GenerateRequest{
			Images:  inv.Images,
			Texts:   texts,
			Options: inv.Options,
		})
		if err != nil {
			return nil, err
		}
		return &Reply{Image: img}, nil
	}
}

func validateParams(p api.MemeParams) error {
	switch {
	case p.MinImages < 0 || p.MinTexts < 0:
		return errors.New("negative minimum")
	case p.MinImages > p.MaxImages:
		return fmt.Errorf("min_images %d > max_images %d", p.MinImages, p.MaxImages)
	case p.MinTexts > p.MaxTexts:
		return fmt.Errorf("min_texts %d > max_texts %d", p.MinTexts, p.MaxTexts)
	}
	return nil
}

func aliases(info api.MemeInfo) []string {
	seen := map[string]bool{info.Key: true}
	out := make([]string, 0, len(info.Keywords))
	for _, k := range info.Keywords {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func description(info api.MemeInfo) string {
	if len(info.Keywords) > 0 {
		return strings.Join(info.Keywords, "/")
	}
	return info.Key
}

// Usage renders a one-line summary of what a meme accepts.
func Usage(info api.MemeInfo) string {
	p := info.Params
	var sb strings.Builder
	sb.WriteString(info.Key)
	fmt.Fprintf(&sb, " images=%s texts=%s", countRange(p.MinImages, p.MaxImages), countRange(p.MinTexts, p.MaxTexts))
	if len(p.DefaultTexts) > 0 {
		fmt.Fprintf(&sb, " default=%q", strings.Join(p.DefaultTexts, " "))
	}
	for _, o := range p.Options {
		fmt.Fprintf(&sb, " [--%s:%s]", o.Name, o.Type)
	}
	return sb.String()
}

func countRange(lo, hi int) string {
	if lo == hi {
		return fmt.Sprint(lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}
