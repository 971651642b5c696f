package command

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reglet-dev/reglet-memes/api"
)

// Shortcut triggers a command when a chat message matches Pattern. Named
// groups in Pattern can be referenced from Texts as {name}.
type Shortcut struct {
	Pattern *regexp.Regexp
	Options map[string]any
	Name    string
	Target  string
	Texts   []string
}

// CompileShortcut turns a backend shortcut of the command at target into a
// Shortcut. The pattern is anchored to the whole message.
func CompileShortcut(target string, s api.MemeShortcut) (Shortcut, error) {
	re, err := regexp.Compile("^(?:" + s.Pattern + ")$")
	if err != nil {
		return Shortcut{}, fmt.Errorf("shortcut %q of %s: %w", s.Pattern, target, err)
	}

	name := s.Humanized
	if name == "" {
		name = s.Pattern
	}
	return Shortcut{
		Pattern: re,
		Options: s.Options,
		Name:    name,
		Target:  target,
		Texts:   s.Texts,
	}, nil
}

// Match reports whether text triggers the shortcut and returns the
// invocation it expands to. Extra text after the match is not allowed;
// images are passed through by the caller.
func (s Shortcut) Match(text string) (*Invocation, bool) {
	m := s.Pattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, false
	}

	args := make([]string, 0, len(s.Texts))
	for _, t := range s.Texts {
		for i, group := range s.Pattern.SubexpNames() {
			if group != "" {
				t = strings.ReplaceAll(t, "{"+group+"}", m[i])
			}
		}
		args = append(args, t)
	}

	options := make(map[string]any, len(s.Options))
	for k, v := range s.Options {
		options[k] = v
	}
	return &Invocation{Args: args, Options: options}, true
}
