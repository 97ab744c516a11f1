package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/music-indexer/internal/command"
	"github.com/franz/music-indexer/internal/util"
)

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "List songs in the catalog",
	RunE:  runSongsList,
}

var songsAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a song by hand",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongsAdd,
}

func init() {
	songsAddCmd.Flags().String("acoustid", "", "AcoustID fingerprint identifier")

	songsCmd.AddCommand(songsAddCmd)
	rootCmd.AddCommand(songsCmd)
}

func runSongsList(cmd *cobra.Command, args []string) error {
	setupLogging()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc := command.NewService(command.Options{Store: store})
	songs, err := svc.ListSongs()
	if err != nil {
		return err
	}

	if len(songs) == 0 {
		util.InfoLog("No songs in catalog")
		return nil
	}

	for _, song := range songs {
		fmt.Println(song.Title)
	}
	util.InfoLog("%d song(s)", len(songs))
	return nil
}

func runSongsAdd(cmd *cobra.Command, args []string) error {
	setupLogging()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	acoustID, _ := cmd.Flags().GetString("acoustid")

	svc := command.NewService(command.Options{Store: store})
	song, err := svc.CreateSong(args[0], acoustID)
	if err != nil {
		return err
	}

	util.SuccessLog("Added song %q (%s)", song.Title, song.ID)
	return nil
}
