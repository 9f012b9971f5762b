// Package cli implements the legalrag command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

// Runtime is the in-process pipeline a command runs against.
type Runtime struct {
	Service   ports.LegalQueryService
	TopKFinal int
	Close     func()
}

// Loader builds the runtime on first use so help and flag errors never
// touch configuration or backends.
type Loader func(ctx context.Context) (*Runtime, error)

func NewRootCommand(load Loader, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "legalrag",
		Short: "Ask inheritance and divorce law questions against local legal collections",
		Long: `legalrag answers legal questions with a hybrid retrieval pipeline: it extracts
structured metadata from the question, routes it to the matching collections,
retrieves documents with metadata filters and asks the configured model.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAskCommand(load),
		newCollectionsCommand(load),
		newMCPCommand(load, version),
	)
	return root
}

func withRuntime(cmd *cobra.Command, load Loader, fn func(*Runtime) error) error {
	if load == nil {
		return errors.New("pipeline loader is not configured")
	}
	rt, err := load(cmd.Context())
	if err != nil {
		return err
	}
	if rt.Close != nil {
		defer rt.Close()
	}
	return fn(rt)
}
