package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Path != "" {
				fmt.Fprintf(a.out, "# loaded from %s\n", a.cfg.Path)
			}
			return a.cfg.Encode(a.out)
		},
	}
}
