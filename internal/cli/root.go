// Package cli provides the command-line interface for chdoc.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/chdoc/internal/cli/commands"
	"github.com/leapstack-labs/chdoc/internal/cli/config"
	"github.com/leapstack-labs/chdoc/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chdoc",
		Short: "chdoc - ClickHouse Schema Documentation",
		Long: `chdoc walks a ClickHouse server's catalog and writes the schema to a
nested JSON document, generating definitions for undocumented columns
with Gemini along the way.

The document then backs a chat surface: ask questions about your data
in plain language and chdoc translates them to SQL and runs them.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// Load configuration layered with the CLI flags
			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Store config in context
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)

			// Create and store the logger. Quiet by default; --verbose
			// surfaces the per-table walk on stderr.
			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)

			// Create and store renderer based on output mode
			mode := output.Mode(cfg.OutputFormat)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			// Print config file used (if verbose)
			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
ClickHouse metadata extraction and schema chat
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./chdoc.json)")
	rootCmd.PersistentFlags().String("host", "", "ClickHouse host")
	rootCmd.PersistentFlags().Int("port", config.DefaultPort, "ClickHouse native port")
	rootCmd.PersistentFlags().String("user", config.DefaultUser, "ClickHouse user")
	rootCmd.PersistentFlags().String("password", "", "ClickHouse password")
	rootCmd.PersistentFlags().String("database", "", "Initial database for the connection")
	rootCmd.PersistentFlags().Bool("secure", false, "Connect over TLS")
	rootCmd.PersistentFlags().String("api-key", "", "Gemini API key (enables enrichment and chat)")
	rootCmd.PersistentFlags().String("model", config.DefaultModel, "Gemini model")
	rootCmd.PersistentFlags().String("databases", "", "Comma-separated database allow-list")
	rootCmd.PersistentFlags().String("tables", "", "Comma-separated table allow-list")
	rootCmd.PersistentFlags().StringP("output", "o", config.DefaultOutput, "Metadata document path")
	rootCmd.PersistentFlags().String("state", config.DefaultStateFile, "Path to the run history database")
	rootCmd.PersistentFlags().String("format", config.DefaultFormat, "Output format (auto|text|markdown|json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Register completion for format flag
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Register completion for model flag
	_ = rootCmd.RegisterFlagCompletionFunc("model", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-2.0-flash"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewAskCommand())
	rootCmd.AddCommand(commands.NewUICommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return &config.Config{
		ClickHouse:   config.ClickHouseConfig{Port: config.DefaultPort, User: config.DefaultUser},
		Gemini:       config.GeminiConfig{Model: config.DefaultModel},
		Output:       config.DefaultOutput,
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultFormat,
		UI:           config.UIConfig{Port: config.DefaultUIPort, AutoOpen: true, Watch: true},
	}
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	// Return default renderer if none in context
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for chdoc.

To load completions:

Bash:
  $ source <(chdoc completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ chdoc completion bash > /etc/bash_completion.d/chdoc
  # macOS:
  $ chdoc completion bash > $(brew --prefix)/etc/bash_completion.d/chdoc

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ chdoc completion zsh > "${fpath[1]}/_chdoc"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ chdoc completion fish | source

  # To load completions for each session, execute once:
  $ chdoc completion fish > ~/.config/fish/completions/chdoc.fish

PowerShell:
  PS> chdoc completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> chdoc completion powershell > chdoc.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
