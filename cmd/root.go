package cmd

import (
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/szmania/mega-manager/internal/config"
	"github.com/szmania/mega-manager/internal/logger"
)

var (
	configPath string
	logLevel   string
	logFile    string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mega-manager",
	Short: "Manage multiple MEGA accounts: sync, prune, and re-encode media.",
	Long: `mega-manager drives the megatools executables over any number of MEGA
accounts: it uploads and downloads mapped directory trees, removes remote
files deleted locally, cleans up incomplete downloads, and re-encodes images
and videos to reclaim space.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetLevel(logger.ParseLevel(logLevel))
		if logFile != "" {
			if _, err := logger.TeeToFile(logFile); err != nil {
				return err
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warning or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Mirror log output to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(quotaCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration and fills in any password left empty by
// prompting for it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	for i := range cfg.Profiles {
		p := &cfg.Profiles[i]
		if p.Password == "" {
			p.Password = promptForPassword("Password for " + p.Username)
		}
	}
	return cfg, nil
}

func promptForPassword(label string) string {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
	}
	result, err := prompt.Run()
	if err != nil {
		logger.Info("Operation cancelled.")
		os.Exit(0)
	}
	return result
}
