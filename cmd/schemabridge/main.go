package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Zachacious/schemabridge/internal/generate"
	"github.com/Zachacious/schemabridge/internal/logger"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// These variables are set at build time by the Makefile's ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd wires the commands to v. Flags and SCHEMABRIDGE_* environment
// variables both feed v; flags win when set.
func newRootCmd(v *viper.Viper) *cobra.Command {
	v.SetEnvPrefix("SCHEMABRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var rootCmd = &cobra.Command{
		Use:   "schemabridge [path]",
		Short: "schemabridge generates an OpenAPI document from declared routes and validation schemas.",
		Long: `schemabridge reads a route table (routes.yaml) whose request and response
shapes are written as validation schemas, converts every schema to its OpenAPI
3.0.3 form and writes a complete specification document. The document shell
(info, servers, tags, shared components) comes from .schemabridge.yaml.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Initialize(v.GetBool("log-json"), v.GetBool("verbose"))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath := "."
			if len(args) == 1 {
				projectPath = args[0]
			}
			logger.Logger.Infow("Generating document", "project", projectPath)

			res, err := generate.Run(generate.Options{
				ProjectPath: projectPath,
				Output:      v.GetString("output"),
				Format:      v.GetString("format"),
				Check:       v.GetBool("check"),
			})
			if err != nil {
				return report(cmd, err)
			}
			if v.GetBool("check") {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", res.Output)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully generated OpenAPI spec at: %s\n", res.Output)
			return nil
		},
	}

	var validateCmd = &cobra.Command{
		Use:   "validate <file>",
		Short: "Load an OpenAPI document, resolve its references and validate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := generate.Validate(context.Background(), args[0])
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%d paths)\n", args[0], doc.Paths.Len())
			return nil
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of schemabridge",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "schemabridge version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "built at: %s\n", date)
		},
	}

	rootCmd.AddCommand(validateCmd, versionCmd)

	rootCmd.Flags().StringP("output", "o", "", "Output file (default: 'output' from .schemabridge.yaml, else openapi.yaml)")
	rootCmd.Flags().StringP("format", "f", "", "Output format: yaml or json (default: from the output extension)")
	rootCmd.Flags().Bool("check", false, "Fail instead of writing when the output file is out of date")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	_ = v.BindPFlags(rootCmd.Flags())
	_ = v.BindPFlags(rootCmd.PersistentFlags())

	return rootCmd
}

// report prints the hints attached to err. Cobra prints the error itself.
func report(cmd *cobra.Command, err error) error {
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: %s\n", hint)
	}
	return err
}
