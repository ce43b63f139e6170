package main

import (
	"fmt"
	"log/slog"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/spf13/cobra"

	"github.com/secureops/secureops-client/config"
	"github.com/secureops/secureops-client/internal/bootstrap"
	apperrors "github.com/secureops/secureops-client/internal/errors"
)

// cli carries state shared by every command of one invocation.
type cli struct {
	output   string
	query    string
	logLevel string

	cfg     config.AppConfig
	logger  *slog.Logger
	app     *bootstrap.App
	printer *printer
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secureops",
		Short: "Client for the SecureOps safety-inspection API",
		Long: `secureops signs in to the SecureOps API, uploads images, PDFs and videos
for inspection, follows the processing job and prints its results.

The API location and account are read from the environment
(SECUREOPS_API_URL, SECUREOPS_EMAIL, SECUREOPS_PASSWORD) or a .env file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.output, "output", formatJSON, "Output format (json, yaml)")
	flags.StringVar(&c.query, "query", "", "JMESPath expression applied to the output")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(
		newHealthCmd(c),
		newSignupCmd(c),
		newWhoamiCmd(c),
		newUploadCmd(c),
		newStatusCmd(c),
		newResultsCmd(c),
		newReportCmd(c),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.output != formatJSON && c.output != formatYAML {
		return apperrors.ValidationField("output", fmt.Sprintf("unknown output format %q (valid options: json, yaml)", c.output))
	}
	if c.query != "" {
		if _, err := jmespath.Compile(c.query); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid --query expression")
		}
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		if err := cfg.Observability.LogLevel.UnmarshalText([]byte(c.logLevel)); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid --log-level")
		}
	}
	c.cfg = cfg
	c.logger = bootstrap.NewLogger(cmd.ErrOrStderr(), cfg.Observability.LogLevel)
	c.printer = &printer{w: cmd.OutOrStdout(), format: c.output, query: c.query}

	app, err := bootstrap.Open(cmd.Context(), &c.cfg, c.logger)
	if err != nil {
		return fmt.Errorf("start client: %w", err)
	}
	c.app = app
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	if err != nil {
		return fmt.Errorf("close client: %w", err)
	}
	return nil
}
