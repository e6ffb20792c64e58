package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oarkflow/composenet"
	"github.com/oarkflow/composenet/internal/compose"
	"github.com/oarkflow/composenet/internal/config"
	"github.com/oarkflow/composenet/internal/schema"
)

func newCheckCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <compose-file>",
		Short: "Check a compose file",
		Long: `Check that a compose file can be augmented.

This validates:
  - YAML syntax
  - services and networks are mappings
  - every service's networks is a list or a mapping
  - with --strict, the whole file loads as a compose project

The services and their attached networks are listed on success.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return &InvalidInputError{Message: "requires exactly one compose file"}
			}
			return nil
		},
		ValidArgsFunction: completeDescriptor,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			doc, err := compose.Load(path)
			if err != nil {
				if errors.Is(err, compose.ErrInvalidShape) {
					result := schema.ValidateFile(path)
					printValidationErrors(cmd.OutOrStdout(), result)
				}
				return err
			}

			if strict {
				data, err := os.ReadFile(path)
				if err != nil {
					return &compose.ReadError{Path: path, Err: err}
				}
				if err := compose.ValidateProject(cmd.Context(), data, filepath.Dir(path)); err != nil {
					return err
				}
			}

			return printSummary(cmd.OutOrStdout(), path, doc)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "also load the file as a compose project")
	return cmd
}

func printValidationErrors(w io.Writer, result *schema.ValidationResult) {
	if result.Valid {
		return
	}
	fmt.Fprintf(w, "\nValidation failed with %d error(s):\n\n", len(result.Errors))
	for i, err := range result.Errors {
		fmt.Fprintf(w, "  %d. %s: %s\n", i+1, err.Path, err.Message)
	}
}

func printSummary(w io.Writer, path string, doc *compose.Descriptor) error {
	fmt.Fprintf(w, "✓ %s is a valid compose file\n", path)
	if v := doc.Version(); v != "" {
		fmt.Fprintf(w, "  version: %s\n", v)
	}

	names := doc.ServiceNames()
	fmt.Fprintf(w, "  services: %d\n", len(names))
	for _, name := range names {
		svc, err := doc.Service(name)
		if err != nil {
			return err
		}
		attached := "(none)"
		if len(svc.Networks) > 0 {
			attached = strings.Join(svc.Networks, ", ")
		}
		fmt.Fprintf(w, "    %s: %s\n", name, attached)
	}

	networks, err := doc.Networks()
	if err != nil {
		return err
	}
	declared := doc.NetworkNames()
	fmt.Fprintf(w, "  networks: %d\n", len(declared))
	for _, name := range declared {
		n := networks[name]
		var attrs []string
		if n.Driver != "" {
			attrs = append(attrs, "driver "+n.Driver)
		}
		if n.External {
			attrs = append(attrs, "external")
		}
		if len(attrs) > 0 {
			fmt.Fprintf(w, "    %s (%s)\n", name, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(w, "    %s\n", name)
		}
	}
	return nil
}

func newInitCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new settings file",
		Long: `Initialize a new ` + config.DefaultFile + ` settings file.

This creates a settings file with the built-in defaults that you can
customize for your project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := config.DefaultFile
			if o.cfgFile != "" {
				configPath = o.cfgFile
			}

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file already exists: %s", configPath)
			}

			if err := os.WriteFile(configPath, []byte(config.DefaultTemplate()), 0644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", configPath)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit, and build date of composenet.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "composenet %s\n", composenet.Version)
			if composenet.GitCommit != "" {
				fmt.Fprintf(w, "  Commit: %s\n", composenet.GitCommit)
			}
			if composenet.BuildDate != "" {
				fmt.Fprintf(w, "  Built:  %s\n", composenet.BuildDate)
			}
		},
	}
}
