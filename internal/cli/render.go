package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/tapestry/internal/engine"
)

// parseFilterFlags turns repeated k=v flags into a filter map.
func parseFilterFlags(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", pair)
		}
		filters[key] = value
	}
	return filters, nil
}

func newRenderCmd(state *rootState) *cobra.Command {
	var (
		entityURL string
		filters   []string
		outFile   string
	)

	cmd := &cobra.Command{
		Use:   "render <view-id>",
		Short: "Render a view for an entity to markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFilterFlags(filters)
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context(), state.cfg, state.log, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.engine.Render(cmd.Context(), args[0], engine.ViewContext{
				EntityURL: entityURL,
				Filters:   f,
			})
			if err != nil {
				return err
			}

			if outFile != "" {
				return os.WriteFile(outFile, []byte(result.Markdown), 0o644)
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Markdown)
			return nil
		},
	}

	cmd.Flags().StringVar(&entityURL, "entity", "", "context entity URL (required)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "entity filter, key=value (repeatable)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write markdown to file instead of stdout")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}
