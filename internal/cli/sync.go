package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/tapestry/internal/engine"
)

func newSyncCmd(state *rootState) *cobra.Command {
	var (
		entityURL string
		filters   []string
		editFile  string
		apply     bool
	)

	cmd := &cobra.Command{
		Use:   "sync <view-id>",
		Short: "Diff an edited rendering against the graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFilterFlags(filters)
			if err != nil {
				return err
			}

			edited, err := os.ReadFile(editFile)
			if err != nil {
				return fmt.Errorf("reading edited markdown: %w", err)
			}

			rt, err := buildRuntime(cmd.Context(), state.cfg, state.log, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.engine.Sync(cmd.Context(), args[0], engine.ViewContext{
				EntityURL: entityURL,
				Filters:   f,
			}, string(edited))
			if err != nil {
				return err
			}

			if apply {
				if _, err := rt.engine.CreateEntities(cmd.Context(), result.Created); err != nil {
					return err
				}
				if err := rt.engine.ApplyMutations(cmd.Context(), result.Mutations); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"mutations": result.Mutations,
				"created":   result.Created,
				"updated":   result.Updated,
				"applied":   apply,
			})
		},
	}

	cmd.Flags().StringVar(&entityURL, "entity", "", "context entity URL (required)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "entity filter, key=value (repeatable)")
	cmd.Flags().StringVar(&editFile, "file", "", "path to the edited markdown (required)")
	cmd.Flags().BoolVar(&apply, "apply", false, "apply mutations and create entities")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
