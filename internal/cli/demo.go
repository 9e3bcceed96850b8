package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/tapestry/internal/engine"
	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/view"
)

// demo walks the full pipeline on the seeded blog dataset: render a tag
// view, edit the rendered table, sync, apply, and render again.
func newDemoCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a render/edit/sync round trip on a seeded in-memory store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store := graph.NewMemoryStore()
			origin := state.cfg.Origin
			if err := graph.Seed(ctx, store, origin); err != nil {
				return err
			}

			views := view.NewMemoryStore()
			views.Put(view.Definition{
				EntityType: "Tag",
				Template:   "# {name}\n\n<Posts columns={[\"title\", \"status\"]} />\n",
			})

			eng := engine.New(engine.Config{
				Views:  views,
				Graph:  store,
				Origin: origin,
				Log:    state.log,
			})

			vctx := engine.ViewContext{EntityURL: graph.CanonicalURL(origin, "tag", "javascript")}

			rendered, err := eng.Render(ctx, "[Tag]", vctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "--- rendered ---")
			fmt.Fprint(out, rendered.Markdown)

			edited := strings.TrimRight(rendered.Markdown, "\n") + "\n| demo-post | A Demo Post | draft |\n"
			fmt.Fprintln(out, "\n--- edited (one row added) ---")
			fmt.Fprint(out, edited)

			result, err := eng.Sync(ctx, "[Tag]", vctx, edited)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n--- sync: %d mutations, %d to create ---\n", len(result.Mutations), len(result.Created))
			for _, m := range result.Mutations {
				fmt.Fprintf(out, "  %s %s %s -> %s\n", m.Type, m.Predicate, m.From, m.To)
			}

			if _, err := eng.CreateEntities(ctx, result.Created); err != nil {
				return err
			}
			if err := eng.ApplyMutations(ctx, result.Mutations); err != nil {
				return err
			}

			again, err := eng.Render(ctx, "[Tag]", vctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\n--- rendered after apply ---")
			fmt.Fprint(out, again.Markdown)
			return nil
		},
	}
}
