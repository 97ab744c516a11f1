package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/music-indexer/internal/command"
	"github.com/franz/music-indexer/internal/util"
)

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "List releases in the catalog",
	RunE:  runReleasesList,
}

func init() {
	rootCmd.AddCommand(releasesCmd)
}

func runReleasesList(cmd *cobra.Command, args []string) error {
	setupLogging()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc := command.NewService(command.Options{Store: store})
	releases, err := svc.ListReleases()
	if err != nil {
		return err
	}

	if len(releases) == 0 {
		util.InfoLog("No releases in catalog")
		return nil
	}

	for _, r := range releases {
		if r.ReleaseDate != "" {
			fmt.Printf("%s (%s)\n", r.Title, r.ReleaseDate)
		} else {
			fmt.Println(r.Title)
		}
	}
	util.InfoLog("%d release(s)", len(releases))
	return nil
}
