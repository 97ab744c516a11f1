package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-indexer/internal/catalog"
	"github.com/franz/music-indexer/internal/config"
	"github.com/franz/music-indexer/internal/util"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "mindex",
		Short: "Music Indexer - build a catalog from your audio file collection",
		Long: `mindex scans your audio file collection and maintains a local catalog:
artists, releases, tracks and the files that carry them, with stream
properties and acoustic analysis per file. Scans are incremental and
safe to re-run; each file is imported in its own transaction.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mindex/config.yaml)")
	rootCmd.PersistentFlags().String("db", "mindex.db", "catalog database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mindex"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MINDEX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

// setupLogging applies the global verbosity flags
func setupLogging() {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
}

// openStore opens the catalog database named by the --db flag
func openStore() (*catalog.Store, error) {
	dbPath := viper.GetString("db")
	util.DebugLog("Opening catalog: %s", dbPath)

	store, err := catalog.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return store, nil
}

// loadScannerConfig reads the scanner section of the active config
func loadScannerConfig() (*config.Scanner, error) {
	return config.LoadScanner(viper.GetViper())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
