package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const sampleConfig = `origin: graph://local
views_dir: views
schema_path: relationships.cue
listen: ":8080"
log_level: info
store:
  driver: memory
  dsn: ""
`

const sampleTagView = `---
entity_type: Tag
description: tag detail view
---
# {name}

<Posts columns={["title", "status"]} />
`

const samplePostView = `---
entity_type: Post
description: post detail view
---
# {title}

Status: {status}

<Tags format=list />

<Comments format=cards />
`

const sampleSchema = `relationships: [
	{context: "Post", component: "Tag", predicate: "tags", direction: "forward"},
]
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold tapestry.yaml and a sample views directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			files := []struct {
				path    string
				content string
			}{
				{"tapestry.yaml", sampleConfig},
				{"relationships.cue", sampleSchema},
				{filepath.Join("views", "Tag.md"), sampleTagView},
				{filepath.Join("views", "Post.md"), samplePostView},
			}

			if err := os.MkdirAll("views", 0o755); err != nil {
				return err
			}
			for _, f := range files {
				path, content := f.path, f.content
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "skipping %s (exists)\n", path)
					continue
				}
				if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			}
			return nil
		},
	}
}
