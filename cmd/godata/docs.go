package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	gdata "github.com/godata-project/godata"
	"github.com/godata-project/godata/documents"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List, upload and export documents",
}

var (
	flagDocsFolders bool
	flagDocsTitle   string
)

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your documents",
	RunE:  runDocsList,
}

var (
	flagDownloadFormat string
	flagDownloadOut    string
)

var docsDownloadCmd = &cobra.Command{
	Use:   "download <document-uri>",
	Short: "Export a document to a local file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDownload,
}

var flagDocsUploadTitle string

var docsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file as a new document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsUpload,
}

func init() {
	docsListCmd.Flags().BoolVar(&flagDocsFolders, "folders", false, "Include folders")
	docsListCmd.Flags().StringVar(&flagDocsTitle, "title", "", "Filter by title substring")

	docsDownloadCmd.Flags().StringVar(&flagDownloadFormat, "format", "pdf", "Export format (pdf, txt, csv, ...)")
	docsDownloadCmd.Flags().StringVarP(&flagDownloadOut, "out", "o", "", "Output file (defaults to the document title)")

	docsUploadCmd.Flags().StringVar(&flagDocsUploadTitle, "title", "", "Document title (defaults to the file name)")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDownloadCmd)
	docsCmd.AddCommand(docsUploadCmd)
	rootCmd.AddCommand(docsCmd)
}

func newDocumentsService() (*documents.Service, error) {
	authorizer, err := requireAuthorizer()
	if err != nil {
		return nil, err
	}
	return documents.NewServiceWithConfig(gdata.ServiceConfig{
		Authorizer: authorizer,
		Timeout:    cfg.ServiceTimeout("documents"),
		Locale:     cfg.ServiceLocale("documents"),
	}), nil
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	svc, err := newDocumentsService()
	if err != nil {
		return err
	}
	q := documents.NewDocumentsQuery("")
	if flagDocsFolders {
		q.SetShowFolders(true)
	}
	if flagDocsTitle != "" {
		q.SetTitle(flagDocsTitle, false)
	}

	feed, err := svc.QueryDocuments(cmd.Context(), q)
	if err != nil {
		return err
	}
	for _, entry := range feed.Entries {
		d := entry.(*documents.Document)
		fmt.Printf("%-28s %s\n", d.ResourceID, d.Title)
	}
	return nil
}

func runDocsDownload(cmd *cobra.Command, args []string) error {
	svc, err := newDocumentsService()
	if err != nil {
		return err
	}

	entry, err := svc.QuerySingle(cmd.Context(), documents.Domain, args[0],
		func() gdata.EntryLike { return &documents.Document{} })
	if err != nil {
		return err
	}
	doc := entry.(*documents.Document)

	out := flagDownloadOut
	if out == "" {
		out = doc.Title + "." + flagDownloadFormat
	}
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer file.Close()

	stream, err := svc.DownloadDocument(cmd.Context(), doc, flagDownloadFormat, nil)
	if err != nil {
		return err
	}
	defer stream.Close()

	if _, err := io.Copy(file, stream); err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", out)
	return nil
}

func runDocsUpload(cmd *cobra.Command, args []string) error {
	svc, err := newDocumentsService()
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

	title := flagDocsUploadTitle
	if title == "" {
		title = filepath.Base(path)
	}
	doc := documents.NewDocument(title)

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stream, err := svc.UploadDocument(cmd.Context(), doc, nil, filepath.Base(path), contentType, info.Size(), nil)
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

	inserted, err := stream.FinishUpload(func() gdata.EntryLike { return &documents.Document{} })
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded document %s\n", inserted.(*documents.Document).ResourceID)
	return nil
}
