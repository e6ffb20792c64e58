/*
Package cmd provides the CLI commands for composenet.
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oarkflow/composenet/internal/augment"
	"github.com/oarkflow/composenet/internal/config"
)

// Exit codes returned by the composenet binary.
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// envPrefix namespaces the environment variables that override settings.
const envPrefix = "COMPOSENET"

type rootOptions struct {
	cfgFile  string
	verbose  bool
	debug    bool
	driver   string
	suffix   string
	sentinel string
	indent   int
	strict   bool
}

// Execute runs the command tree with os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var inputErr *InvalidInputError
	if errors.As(err, &inputErr) {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "composenet <compose-file> <labels>",
		Short: "Attach dependency networks to every service of a compose file",
		Long: `composenet reads a Docker Compose file, attaches a set of networks to
every service and declares those networks in the top-level networks
table. The updated file is printed on stdout; the input is never modified.

Each comma-separated label becomes "<label>_dependencies_net" and
"traefik_net" is always attached last. Networks that are already
attached or declared are left as they are.

Example:
  composenet docker-compose.yml "billing, auth" > docker-compose.net.yml
  composenet docker-compose.yml billing --driver bridge
  composenet docker-compose.yml billing --strict`,
		Args:              requireArgs,
		ValidArgsFunction: completeDescriptor,
		SilenceUsage:      true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			o.initLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.settings(cmd)
			if err != nil {
				return err
			}

			opts := augment.Options{
				Path:     args[0],
				Labels:   args[1],
				Driver:   cfg.Driver,
				Suffix:   cfg.Suffix,
				Sentinel: cfg.Sentinel,
				Indent:   cfg.Indent,
				Strict:   cfg.Strict,
			}
			return augment.Augment(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVarP(&o.cfgFile, "config", "c", "", "settings file (default is "+config.DefaultFile+" if present)")
	cmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "enable debug output")

	cmd.Flags().StringVar(&o.driver, "driver", defaults.Driver, "driver for networks that get declared")
	cmd.Flags().StringVar(&o.suffix, "suffix", defaults.Suffix, "suffix appended to every label")
	cmd.Flags().StringVar(&o.sentinel, "sentinel", defaults.Sentinel, "network attached after the label networks")
	cmd.Flags().IntVar(&o.indent, "indent", defaults.Indent, "indentation of the emitted YAML")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "validate the result with the compose loader before printing it")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newInitCmd(o))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newCompletionCmd())

	return cmd
}

// requireArgs checks the two positional arguments before anything touches
// the filesystem.
func requireArgs(cmd *cobra.Command, args []string) error {
	var err error
	switch {
	case len(args) < 2:
		err = &InvalidInputError{Message: fmt.Sprintf("requires a compose file and a label list, got %d argument(s)", len(args))}
	case len(args) > 2:
		err = &InvalidInputError{Message: fmt.Sprintf("accepts 2 arguments, got %d", len(args))}
	case strings.TrimSpace(args[0]) == "":
		err = &InvalidInputError{Message: "compose file path is empty"}
	case args[1] == "":
		err = &InvalidInputError{Message: "label list is empty"}
	}

	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	}
	return err
}

func completeDescriptor(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return []string{"yml", "yaml"}, cobra.ShellCompDirectiveFilterFileExt
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func (o *rootOptions) initLogging() {
	if o.debug {
		log.SetLevel(log.DebugLevel)
	} else if o.verbose {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

// settings resolves the effective settings. Precedence, highest first:
// flags, COMPOSENET_* environment variables, settings file, defaults.
func (o *rootOptions) settings(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	path := v.GetString("config")
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		}
	}

	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		log.Debug("Loaded settings", "path", path)
		cfg = loaded
	}

	if v.IsSet("driver") {
		cfg.Driver = v.GetString("driver")
	}
	if v.IsSet("suffix") {
		cfg.Suffix = v.GetString("suffix")
	}
	if v.IsSet("sentinel") {
		cfg.Sentinel = v.GetString("sentinel")
	}
	if v.IsSet("indent") {
		cfg.Indent = v.GetInt("indent")
	}
	if v.IsSet("strict") {
		cfg.Strict = v.GetBool("strict")
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
