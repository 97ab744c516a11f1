package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/franz/music-indexer/internal/command"
	"github.com/franz/music-indexer/internal/util"
)

var artistsCmd = &cobra.Command{
	Use:   "artists",
	Short: "List artists in the catalog",
	RunE:  runArtistsList,
}

var artistsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an artist by hand",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtistsAdd,
}

func init() {
	artistsAddCmd.Flags().String("bio", "", "artist biography")
	artistsAddCmd.Flags().StringSlice("variation", nil, "alternate name spellings")
	artistsAddCmd.Flags().StringSlice("site", nil, "site URLs")

	artistsCmd.AddCommand(artistsAddCmd)
	rootCmd.AddCommand(artistsCmd)
}

func runArtistsList(cmd *cobra.Command, args []string) error {
	setupLogging()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc := command.NewService(command.Options{Store: store})
	artists, err := svc.ListArtists()
	if err != nil {
		return err
	}

	if len(artists) == 0 {
		util.InfoLog("No artists in catalog")
		return nil
	}

	for _, a := range artists {
		fmt.Println(a.Name)
		if len(a.Variations) > 0 {
			fmt.Printf("  aka: %s\n", strings.Join(a.Variations, ", "))
		}
		for _, site := range a.Sites {
			fmt.Printf("  %s\n", site)
		}
	}
	util.InfoLog("%d artist(s)", len(artists))
	return nil
}

func runArtistsAdd(cmd *cobra.Command, args []string) error {
	setupLogging()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	bio, _ := cmd.Flags().GetString("bio")
	variations, _ := cmd.Flags().GetStringSlice("variation")
	sites, _ := cmd.Flags().GetStringSlice("site")

	svc := command.NewService(command.Options{Store: store})
	artist, err := svc.CreateArtist(args[0], bio, variations, sites)
	if err != nil {
		return err
	}

	util.SuccessLog("Added artist %q (%s)", artist.Name, artist.ID)
	return nil
}
