package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-indexer/internal/config"
	"github.com/franz/music-indexer/internal/util"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the scanner configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the active scanner configuration",
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update and persist the scanner configuration",
	Long: `Set updates the scanner section of the config file. Only the flags
you pass change; everything else keeps its saved value.`,
	RunE: runConfigSet,
}

func init() {
	configSetCmd.Flags().StringSlice("roots", nil, "root directories to scan")
	configSetCmd.Flags().StringSlice("exts", nil, "audio file extensions")
	configSetCmd.Flags().Bool("ignore-hidden", true, "skip dot-files and dot-directories")
	configSetCmd.Flags().Uint("max-depth", 0, "directory descent limit (0 for unlimited)")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	setupLogging()

	scanner, err := loadScannerConfig()
	if err != nil {
		return err
	}

	printScanner(scanner)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	setupLogging()

	scanner, err := loadScannerConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("roots") {
		scanner.Roots, _ = cmd.Flags().GetStringSlice("roots")
	}
	if cmd.Flags().Changed("exts") {
		scanner.AudioExts, _ = cmd.Flags().GetStringSlice("exts")
	}
	if cmd.Flags().Changed("ignore-hidden") {
		scanner.IgnoreHidden, _ = cmd.Flags().GetBool("ignore-hidden")
	}
	if cmd.Flags().Changed("max-depth") {
		depth, _ := cmd.Flags().GetUint("max-depth")
		if depth == 0 {
			scanner.MaxDepth = nil
		} else {
			scanner.MaxDepth = &depth
		}
	}

	if err := config.SaveScanner(viper.GetViper(), scanner); err != nil {
		return err
	}

	util.SuccessLog("Configuration saved to %s", viper.ConfigFileUsed())
	printScanner(scanner)
	return nil
}

func printScanner(scanner *config.Scanner) {
	if len(scanner.Roots) == 0 {
		util.WarnLog("No roots configured (set with: mindex config set --roots <dir>)")
	} else {
		fmt.Println("roots:")
		for _, root := range scanner.Roots {
			fmt.Printf("  - %s\n", root)
		}
	}
	fmt.Printf("audio_exts: %s\n", strings.Join(scanner.AudioExts, ", "))
	fmt.Printf("ignore_hidden: %v\n", scanner.IgnoreHidden)
	if scanner.MaxDepth != nil {
		fmt.Printf("max_depth: %d\n", *scanner.MaxDepth)
	} else {
		fmt.Println("max_depth: unlimited")
	}
}
