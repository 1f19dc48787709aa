package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	gdata "github.com/godata-project/godata"
	"github.com/godata-project/godata/youtube"
)

var youtubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Search and upload YouTube videos",
}

var (
	flagVideoOrder string
	flagVideoMax   int
)

var youtubeSearchCmd = &cobra.Command{
	Use:   "search <terms...>",
	Short: "Search the public video index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runYouTubeSearch,
}

var youtubeStandardCmd = &cobra.Command{
	Use:   "standard <feed>",
	Short: "Fetch a standard feed, such as most_popular",
	Args:  cobra.ExactArgs(1),
	RunE:  runYouTubeStandard,
}

var (
	flagUploadTitle       string
	flagUploadDescription string
	flagUploadCategory    string
	flagUploadPrivate     bool
)

var youtubeUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a video",
	Args:  cobra.ExactArgs(1),
	RunE:  runYouTubeUpload,
}

func init() {
	youtubeSearchCmd.Flags().StringVar(&flagVideoOrder, "order", youtube.OrderByRelevance, "Result order (relevance, published, viewCount, rating)")
	youtubeSearchCmd.Flags().IntVar(&flagVideoMax, "max-results", 25, "Maximum number of videos")

	youtubeUploadCmd.Flags().StringVar(&flagUploadTitle, "title", "", "Video title (defaults to the file name)")
	youtubeUploadCmd.Flags().StringVar(&flagUploadDescription, "description", "", "Video description")
	youtubeUploadCmd.Flags().StringVar(&flagUploadCategory, "category", "People", "Video category term")
	youtubeUploadCmd.Flags().BoolVar(&flagUploadPrivate, "private", false, "Hide the video from the public index")

	youtubeCmd.AddCommand(youtubeSearchCmd)
	youtubeCmd.AddCommand(youtubeStandardCmd)
	youtubeCmd.AddCommand(youtubeUploadCmd)
	rootCmd.AddCommand(youtubeCmd)
}

func newYouTubeService(needAuth bool) (*youtube.Service, error) {
	var (
		authorizer gdata.Authorizer
		err        error
	)
	if needAuth {
		authorizer, err = requireAuthorizer()
	} else {
		authorizer, err = newAuthorizer()
	}
	if err != nil {
		return nil, err
	}
	return youtube.NewServiceWithConfig(cfg.Services["youtube"].DeveloperKey, gdata.ServiceConfig{
		Authorizer: authorizer,
		Timeout:    cfg.ServiceTimeout("youtube"),
		Locale:     cfg.ServiceLocale("youtube"),
	}), nil
}

func runYouTubeSearch(cmd *cobra.Command, args []string) error {
	svc, err := newYouTubeService(false)
	if err != nil {
		return err
	}
	q := youtube.NewVideoQuery(strings.Join(args, " "))
	q.SetOrderBy(flagVideoOrder)
	q.SetMaxResults(flagVideoMax)

	feed, err := svc.QueryVideos(cmd.Context(), q)
	if err != nil {
		return err
	}
	printVideos(feed)
	return nil
}

func runYouTubeStandard(cmd *cobra.Command, args []string) error {
	svc, err := newYouTubeService(false)
	if err != nil {
		return err
	}
	feed, err := svc.QueryStandardFeed(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}
	printVideos(feed)
	return nil
}

func printVideos(feed *gdata.Feed) {
	for _, entry := range feed.Entries {
		v := entry.(*youtube.Video)
		fmt.Printf("%-13s %9dv  %s\n", v.VideoID, v.ViewCount, v.Title)
	}
}

func runYouTubeUpload(cmd *cobra.Command, args []string) error {
	svc, err := newYouTubeService(true)
	if err != nil {
		return err
	}

	path := args[0]
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}

	title := flagUploadTitle
	if title == "" {
		title = filepath.Base(path)
	}
	video := youtube.NewVideo(title)
	video.Description = flagUploadDescription
	video.Category = flagUploadCategory
	video.Private = flagUploadPrivate

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	progress := func(written, total int64) {
		if total > 0 {
			fmt.Printf("\rUploading... %d%%", written*100/total)
		}
	}
	stream, err := svc.UploadVideo(cmd.Context(), video, filepath.Base(path), contentType, info.Size(), progress)
	if err != nil {
		return err
	}
	if _, err := io.Copy(stream, file); err != nil {
		stream.Close()
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}
	fmt.Println()

	inserted, err := stream.FinishUpload(func() gdata.EntryLike { return &youtube.Video{} })
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded video %s\n", inserted.(*youtube.Video).VideoID)
	return nil
}
