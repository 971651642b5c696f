package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	memes "github.com/reglet-dev/reglet-memes"
	"github.com/reglet-dev/reglet-memes/config"
	"github.com/reglet-dev/reglet-memes/notify"
)

// printNotifier writes status updates to the terminal.
type printNotifier struct {
	w io.Writer
}

func (n printNotifier) Update(msg notify.Message) {
	fmt.Fprintf(n.w, "[%s] %s\n", msg.Severity, strings.Join(msg.Content, " "))
}

// newPlugin builds a Plugin from cfg that logs to stderr and prints status
// updates to stdout.
func newPlugin(cmd *cobra.Command, cfg *config.Config, opts ...memes.PluginOption) (*memes.Plugin, error) {
	base := []memes.PluginOption{
		memes.WithLogger(newLogger(cmd.ErrOrStderr())),
		memes.WithNotifier(printNotifier{w: cmd.OutOrStdout()}),
	}
	return memes.FromConfig(cfg, append(base, opts...)...)
}

// activationError turns a failed activation into a CLI error.
func activationError(act *memes.Activation) error {
	if !act.Phase.Failed() {
		return nil
	}
	return fmt.Errorf("activation %s: %s: %w", act.ID, act.Phase, act.Err)
}
