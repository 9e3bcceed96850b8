package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newViewsCmd(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Inspect stored view definitions",
	}
	cmd.AddCommand(newViewsListCmd(state), newViewsShowCmd(state))
	return cmd
}

func newViewsListCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered views",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context(), state.cfg, state.log, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			docs, err := rt.engine.DiscoverViews(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Entity Type", "Components"})
			for _, doc := range docs {
				names := make([]string, 0, len(doc.Components))
				for _, c := range doc.Components {
					names = append(names, c.Name)
				}
				t.AppendRow(table.Row{doc.ID, doc.EntityType, strings.Join(names, ", ")})
			}
			t.Render()
			return nil
		},
	}
}

func newViewsShowCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <view-id>",
		Short: "Show one view's template and components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), state.cfg, state.log, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			doc, err := rt.engine.GetView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("view %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id: %s\nentity_type: %s\n\n", doc.ID, doc.EntityType)

			if len(doc.Components) > 0 {
				t := table.NewWriter()
				t.SetOutputMirror(out)
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"Component", "Entity Type", "Format", "Columns"})
				for _, c := range doc.Components {
					format := string(c.Format)
					if format == "" {
						format = "table"
					}
					t.AppendRow(table.Row{c.Name, c.EntityType, format, strings.Join(c.Columns, ", ")})
				}
				t.Render()
				fmt.Fprintln(out)
			}

			fmt.Fprintln(out, doc.Template)
			return nil
		},
	}
}
