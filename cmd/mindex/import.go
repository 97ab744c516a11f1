package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-indexer/internal/command"
	"github.com/franz/music-indexer/internal/meta"
	"github.com/franz/music-indexer/internal/progress"
	"github.com/franz/music-indexer/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Scan all configured roots and import new or changed files",
	Long: `Import walks every configured root directory, extracts metadata from
each audio file and records it in the catalog. Each file is imported
in its own transaction: a failed file is reported and skipped, the
rest of the run continues. Re-running import is safe and converges.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("analyze", true, "decode audio for fingerprint, tempo and quality analysis")
	importCmd.Flags().String("events", "artifacts", "directory for the JSONL event log ('' disables)")
	viper.BindPFlag("import.analyze", importCmd.Flags().Lookup("analyze"))
	viper.BindPFlag("import.events", importCmd.Flags().Lookup("events"))

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging()

	scanner, err := loadScannerConfig()
	if err != nil {
		return err
	}
	if err := scanner.Validate(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if !meta.ProbeAvailable() {
		util.WarnLog("ffprobe not found in PATH - stream properties will be missing")
		util.WarnLog("Install ffmpeg for best results: https://ffmpeg.org/")
	}

	observers := []progress.Observer{progress.NewBar()}
	if dir := viper.GetString("import.events"); dir != "" {
		eventLog, err := progress.NewEventLog(dir)
		if err != nil {
			util.WarnLog("Event log disabled: %v", err)
		} else {
			defer eventLog.Close()
			observers = append(observers, eventLog)
			util.InfoLog("Event log: %s", eventLog.Path())
		}
	}

	reporter := progress.NewReporter(observers...)
	defer reporter.Close()

	svc := command.NewService(command.Options{
		Store:    store,
		Scanner:  *scanner,
		Reporter: reporter,
		Analyze:  viper.GetBool("import.analyze"),
	})

	// SIGINT stops the scan cooperatively; in-flight files finish
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		util.WarnLog("Interrupted, finishing in-flight files...")
		svc.Orchestrator().Stop()
	}()

	start := time.Now()
	summary, err := svc.ImportFull(ctx)
	if summary != nil {
		util.InfoLog("Imported %d/%d files (%d errors) in %v",
			summary.Succeeded, summary.Total, summary.Failed,
			time.Since(start).Round(time.Millisecond))
	}
	return err
}
