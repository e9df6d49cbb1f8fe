package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/configs"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

var (
	verbose    bool
	debug      bool
	configPath string

	Logger logger.Logger
	Config *configs.Config

	RootCmd = &cobra.Command{
		Use:   "lockbox",
		Short: "Manage encrypted, signed file containers",
		Long: `lockbox stores files in an encrypted container. Every file is encrypted
for a recipient key and may be signed; decrypting checks the content digest
and, on request, the signature or the identity of the signer.

Run without arguments for the interactive menus.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.OutOrStdout(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Initializing lockbox with verbose=%t, debug=%t", verbose, debug)

			path := configPath
			if path == "" {
				path = configs.LockboxSettings.ConfigPath
			}
			cfg, err := configs.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			Config = cfg
			Logger.Debugf("Loaded configuration from %s", path)
			return nil
		},
	}
)

func init() {
	RootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runInteractive(newPromptConsole())
	}

	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/lockbox/config.toml)")

	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(keygenCmd)
	RootCmd.AddCommand(signersCmd)
}

// Execute runs the root command and reports a failure once.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

// trail returns the audit trail configured for this run.
func trail() *audit.Trail {
	if Config == nil {
		return nil
	}
	return audit.NewTrail(Config.AuditLogPath())
}
