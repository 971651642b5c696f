package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	memes "github.com/reglet-dev/reglet-memes"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Activate once and report the backend status",
	Long: `Check runs one activation against the configured backend: it fetches
the meme catalog, builds every command, and prints the status the extension
would report to the host. It exits non-zero when the activation fails.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPlugin(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.Dispose() }()

	act := p.Apply(cmd.Context())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "phase:    %s\n", act.Phase)
	if !act.Phase.Failed() {
		fmt.Fprintf(out, "version:  %s (minimum %s, ok=%t)\n", act.Version, memes.MinVersionString(), act.VersionOK)
		fmt.Fprintf(out, "memes:    %d\n", act.Loaded)
		fmt.Fprintf(out, "commands: %d\n", act.Commands)
	}
	fmt.Fprintf(out, "took:     %s\n", act.Finished.Sub(act.Started).Round(time.Millisecond))
	return activationError(act)
}
