package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/oarkflow/composenet/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [output]",
		Short: "Print the descriptor shape schema",
		Long: `Print the JSON Schema of the compose fields composenet reads and writes.

If no output file is specified, the schema is written to stdout.

Examples:
  composenet schema
  composenet schema composenet.schema.json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.JSON()
			if err != nil {
				return fmt.Errorf("failed to marshal schema: %w", err)
			}

			if len(args) > 0 {
				if err := os.WriteFile(args[0], data, 0644); err != nil {
					return fmt.Errorf("failed to write schema: %w", err)
				}
				log.Info("Schema written", "path", args[0])
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
