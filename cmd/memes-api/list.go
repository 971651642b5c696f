package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	memes "github.com/reglet-dev/reglet-memes"
	"github.com/reglet-dev/reglet-memes/command"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Activate once and list the registered commands",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	reg := command.NewMemoryRegistrar()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := newPlugin(cmd, cfg, memes.WithRegistrar(reg))
	if err != nil {
		return err
	}
	defer func() { _ = p.Dispose() }()

	act := p.Apply(cmd.Context())
	if err := activationError(act); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, path := range reg.Paths() {
		c, _ := reg.Lookup(path)
		fmt.Fprintf(tw, "%s\t%s\n", path, c.Usage)
	}
	for _, s := range reg.Shortcuts() {
		fmt.Fprintf(tw, "%s\t-> %s\n", s.Name, s.Target)
	}
	return tw.Flush()
}
