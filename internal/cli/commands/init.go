package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/leapstack-labs/chdoc/internal/cli/config"
	"github.com/spf13/cobra"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Force   bool
	NoInput bool
}

// initFileConfig is the subset of settings init writes to chdoc.json.
// Filter, state, and UI settings keep their defaults until edited by hand.
type initFileConfig struct {
	ClickHouse config.ClickHouseConfig `json:"clickhouse"`
	Gemini     config.GeminiConfig     `json:"gemini"`
	Output     string                  `json:"output"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a chdoc.json configuration file",
		Long: `Set up chdoc in the current directory by writing a chdoc.json file.

Without flags, init walks through an interactive form asking for the
ClickHouse connection (host, port, user, password, database, TLS) and
the Gemini settings (API key, model). Values already known from flags,
environment variables, or an existing config prefill the form.

Secrets can reference environment variables with ${VAR} syntax, for
example "password": "${CLICKHOUSE_PASSWORD}".`,
		Example: `  # Interactive setup
  chdoc init

  # Write a starter file without prompting
  chdoc init --no-input

  # Replace an existing config
  chdoc init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&opts.NoInput, "no-input", false, "Write a starter file without prompting")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	cmdCtx := NewCommandContextWithoutDB(cmd)
	r := cmdCtx.Renderer
	cfg := cmdCtx.Cfg

	configPath := "chdoc.json"
	if _, err := os.Stat(configPath); err == nil && !opts.Force {
		return fmt.Errorf("chdoc.json already exists. Use --force to overwrite")
	}

	fileCfg := starterConfig(cfg)

	if !opts.NoInput {
		if !isTerminal(os.Stdin) {
			return fmt.Errorf("init is interactive and needs a terminal; use --no-input to write a starter file")
		}

		values, err := runInitWizard(cfg)
		if err != nil {
			return err
		}
		if values == nil {
			r.Muted("Cancelled, nothing written.")
			return nil
		}
		fileCfg = configFromWizard(values)
	}

	data, err := json.MarshalIndent(fileCfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	data = append(data, '\n')

	// The file may hold credentials, keep it private.
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.StatusLine(configPath, "success", "")
	r.Println("")
	r.Success("chdoc configured!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Run 'chdoc doctor' to verify connectivity")
	r.Println("  2. Run 'chdoc extract' to document your schema")
	r.Println("  3. Run 'chdoc ask' or 'chdoc ui' to explore it")

	return nil
}

// starterConfig builds the --no-input file from the effective config so
// values already set via flags or environment carry over.
func starterConfig(cfg *config.Config) initFileConfig {
	out := initFileConfig{
		ClickHouse: cfg.ClickHouse,
		Gemini:     cfg.Gemini,
		Output:     cfg.Output,
	}
	if out.ClickHouse.Host == "" {
		out.ClickHouse.Host = "localhost"
	}
	return out
}

func configFromWizard(v *wizardValues) initFileConfig {
	return initFileConfig{
		ClickHouse: config.ClickHouseConfig{
			Host:     v.Host,
			Port:     v.Port,
			User:     v.User,
			Password: v.Password,
			Database: v.Database,
			Secure:   v.Secure,
		},
		Gemini: config.GeminiConfig{
			APIKey: v.APIKey,
			Model:  v.Model,
		},
		Output: config.DefaultOutput,
	}
}
