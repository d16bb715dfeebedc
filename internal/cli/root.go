package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/changeover/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The root's PersistentPreRunE loads the config file into c.Config. Callers
// that wrap PersistentPreRunE (main sets the log level there) must call the
// original.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Changeover sequences production jobs to minimize material changeover",
		Long:         `Changeover orders SMT production jobs so that consecutive jobs share as many materials as possible, honoring priority items and Top/Bottom layer order.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/changeover/config.toml)")

	// Register all subcommands
	root.AddCommand(c.optimizeCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
