package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/franz/music-indexer/internal/command"
	"github.com/franz/music-indexer/internal/util"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Report files sharing an acoustic fingerprint",
	Long: `Dupes lists groups of library files whose decoded audio hashes to the
same fingerprint: the same recording stored more than once. This is a
report only; nothing is deleted.`,
	RunE: runDupes,
}

func init() {
	rootCmd.AddCommand(dupesCmd)
}

func runDupes(cmd *cobra.Command, args []string) error {
	setupLogging()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc := command.NewService(command.Options{Store: store})
	groups, err := svc.Dupes()
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		util.SuccessLog("No duplicate fingerprints found")
		return nil
	}

	fingerprints := make([]string, 0, len(groups))
	for fp := range groups {
		fingerprints = append(fingerprints, fp)
	}
	sort.Strings(fingerprints)

	for _, fp := range fingerprints {
		fmt.Printf("%s:\n", fp[:12])
		for _, f := range groups[fp] {
			fmt.Printf("  %s\n", f.Path)
		}
	}
	util.WarnLog("%d duplicate group(s)", len(groups))
	return nil
}
