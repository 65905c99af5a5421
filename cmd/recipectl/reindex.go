package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/recipebox/recipebox-server/internal/service"
)

func newReindexCmd(opts *rootOptions) *cobra.Command {
	var skipBlurHash bool

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the database",
		Long: `Drops the search index and indexes every recipe again. Images that
have no blurhash placeholder get one computed unless --skip-blurhash is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(func(injector *do.RootScope) error {
				recipes, err := do.Invoke[*service.RecipeService](injector)
				if err != nil {
					return err
				}

				if !skipBlurHash {
					updated, err := recipes.BackfillBlurHashes(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Computed %d blurhashes\n", updated)
				}

				indexed, err := recipes.Reindex(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d recipes\n", indexed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipBlurHash, "skip-blurhash", false, "Do not compute missing image blurhashes")

	return cmd
}
