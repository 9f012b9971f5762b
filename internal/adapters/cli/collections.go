package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCollectionsCommand(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List configured collections and their routing descriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, load, func(rt *Runtime) error {
				infos, err := rt.Service.Collections(cmd.Context())
				if err != nil {
					return fmt.Errorf("list collections: %w", err)
				}
				renderCollections(cmd.OutOrStdout(), infos)
				return nil
			})
		},
	}
}
