package cmd

import (
	"github.com/charlesthegreat77/isoforge/internal/config"
	"github.com/charlesthegreat77/isoforge/internal/logger"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "isoforge",
	Short: "Build bootable ISO-9660/ECMA-119 disk images",
	Long: `isoforge assembles a directory tree (or a tar.xz archive) into a
single ISO-9660/ECMA-119 disk image, with optional El Torito boot support.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(cfgFile); err != nil {
			return err
		}
		if cmd.Flags().Changed("debug") {
			debug, _ := cmd.Flags().GetBool("debug")
			config.Instance.Debug = debug
		}
		if cmd.Flags().Changed("log-format") {
			format, _ := cmd.Flags().GetString("log-format")
			config.Instance.LogFormat = format
		}
		return logger.Init(logger.Config{
			Debug:   config.Instance.Debug,
			Format:  config.Instance.LogFormat,
			LogFile: config.Instance.LogFile,
		})
	},
}

// Execute runs the root command; it is main's only call into this package.
func Execute() error {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		logger.Log.Errorw("command failed", "error", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./isoforge.yaml, $HOME/.isoforge, /etc/isoforge)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "console", "log output format: console or json")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the isoforge version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("isoforge v0.1.0")
	},
}
