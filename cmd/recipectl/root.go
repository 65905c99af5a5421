package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/recipebox/recipebox-server/internal/config"
	"github.com/recipebox/recipebox-server/internal/di"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	dataPath string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "recipectl",
		Short: "RecipeBox administration tool",
		Long: `recipectl manages a RecipeBox data directory directly.

It opens the same database, image store and search index as the server,
so stop the server before running commands that write.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dataPath, "data-path", "", "Base data path (default: DATA_PATH or ~/RecipeBox/data)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newCreateUserCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newReindexCmd(opts))

	return cmd
}

// container loads configuration from the environment, applies the
// command line overrides and returns a DI container around it.
func (o *rootOptions) container() (*do.RootScope, error) {
	args := []string{}
	if o.dataPath != "" {
		args = append(args, "-data-path", o.dataPath)
	}
	if o.logLevel != "" {
		args = append(args, "-log-level", o.logLevel)
	}

	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return di.NewContainerWithConfig(cfg), nil
}

// withContainer runs fn against a fresh container and shuts it down after.
func (o *rootOptions) withContainer(fn func(injector *do.RootScope) error) error {
	injector, err := o.container()
	if err != nil {
		return err
	}
	runErr := fn(injector)
	if shutdownErr := injector.Shutdown(); shutdownErr != nil && runErr == nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return runErr
}
