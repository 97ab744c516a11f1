package main

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/music-indexer/internal/command"
	"github.com/franz/music-indexer/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Dry run: show what an import would process",
	Long: `Scan classifies the configured roots by storage device, walks them
and reports how many audio files an import would touch, per device,
without extracting metadata or writing to the catalog.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
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

	svc := command.NewService(command.Options{Store: store, Scanner: *scanner})

	report, err := svc.ScanLibrary(context.Background())
	if err != nil {
		return err
	}

	for _, g := range report.Groups {
		if g.Device.Known {
			util.InfoLog("Device %s: %.0f MB/s, %d workers", g.Device.ID, g.Device.BandwidthMBps, g.Workers)
		} else {
			util.InfoLog("Device %q: bandwidth unknown, %d worker", g.Device.ID, g.Workers)
		}
		for _, root := range g.Roots {
			util.InfoLog("  %s", root)
		}
		util.InfoLog("  %d files, %s", g.Candidates, humanize.Bytes(uint64(g.TotalBytes)))
	}

	util.SuccessLog("Total: %d files, %s across %d device(s)",
		report.Candidates, humanize.Bytes(uint64(report.TotalBytes)), len(report.Groups))
	return nil
}
