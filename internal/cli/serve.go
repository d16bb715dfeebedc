package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/changeover/pkg/api"
	"github.com/matzehuels/changeover/pkg/store"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		maxJobs int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sequencing HTTP API",
		Long: `Run the sequencing HTTP API.

Runs are kept in memory unless [store] mongo_uri is set in config.toml.
The cache backend from [cache] is used for every request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, maxJobs)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServerAddr, "listen address")
	cmd.Flags().IntVar(&maxJobs, "max-jobs", api.DefaultMaxJobs, "largest job set accepted per request")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, maxJobs int) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var st store.Store = store.NewMemory()
	if c.Config.Store.MongoURI != "" {
		if st, err = c.newStore(ctx); err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
	}
	defer st.Close()

	srv := api.New(api.Config{
		Runner:  runner,
		Store:   st,
		Logger:  c.Logger,
		MaxJobs: maxJobs,
		Debug:   c.Logger.GetLevel() <= LogDebug,
	})

	c.Logger.Debug("Server config", "cache", c.Config.Cache.Backend, "mongo", c.Config.Store.MongoURI != "")
	return srv.ListenAndServe(ctx, addr)
}
