// Command cachekeepd is a thin front-end wiring cachekeep's library
// pieces together: config loading, logging, one-shot ingest, and the
// scheduled maintenance loop. The cache manager itself never talks to a
// network or a terminal; this binary is just one way to drive it.
package main

import (
	"fmt"
	"os"

	"github.com/sagarc03/cachekeep/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cachekeepd",
	Short: "Managed content-addressed file cache",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(cfg.Log.Env, cfg.Log.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().String("db-type", "", "metadata store backend (sqlite|postgres)")
	rootCmd.PersistentFlags().String("db-dsn", "", "metadata store connection string")
	rootCmd.PersistentFlags().String("storage-dir", "", "cache directory")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)

	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
