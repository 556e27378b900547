package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/cellmate/config"
	"github.com/spetersoncode/cellmate/provider"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newProvidersCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List model providers and whether credentials are configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := provider.NewFactory(provider.ConfigFromEnv().Merge(cfg.Providers))
			out := cmd.OutOrStdout()
			for _, id := range f.Providers() {
				status := red("missing credentials")
				if f.Configured(id) {
					status = green("configured")
				}
				marker := " "
				if id == cfg.DefaultProvider {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-10s %s\n", marker, id, status)
			}
			return nil
		},
	}
}
