package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"auto_blog_writer/publisher"
)

var publishCmd = &cobra.Command{
	Use:   "publish <document.md>",
	Short: "Create a WeChat official account draft from an exported document",
	Long: `Publish reads a document written by "blogwriter write" or the export
endpoint, uploads its cover and inline images, and creates a draft in the
official account configured under wechat.*.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fm, body, err := publisher.ParseDocument(string(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		draft := publisher.Draft{
			Title:    fm.Title,
			Markdown: body,
			CoverURL: fm.CoverImage,
			Author:   fm.Author.Name,
			Digest:   fm.Excerpt,
			BaseDir:  filepath.Dir(path),
		}
		if v, _ := cmd.Flags().GetString("cover"); v != "" {
			draft.CoverURL = v
		}
		if v, _ := cmd.Flags().GetString("author"); v != "" {
			draft.Author = v
		}
		if v, _ := cmd.Flags().GetString("digest"); v != "" {
			draft.Digest = v
		}
		if draft.CoverURL == "" {
			return errors.New("document has no coverImage; pass --cover")
		}

		wx, err := publisher.NewWeChat(cmd.Context(), cfg.WeChat, nil, logger)
		if err != nil {
			return err
		}
		logger.Info("publishing", "title", draft.Title, "file", path)
		mediaID, err := wx.PublishDraft(cmd.Context(), draft)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), mediaID)
		return nil
	},
}

func init() {
	publishCmd.Flags().String("cover", "", "cover image URL or path (overrides the document's coverImage)")
	publishCmd.Flags().String("author", "", "author name (overrides the document's author)")
	publishCmd.Flags().String("digest", "", "article digest (defaults to the document's excerpt)")

	rootCmd.AddCommand(publishCmd)
}
