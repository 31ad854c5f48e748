package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"auto_blog_writer/credentials"
	"auto_blog_writer/publisher"
	"auto_blog_writer/workflow"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Run the whole workflow for one or more topics",
	Long: `Write runs topic, title selection, body, header image and preview without
interaction and saves the exported markdown document. Several --topic flags
write several posts concurrently.`,
	Example: `  blogwriter write --topic "Space Exploration" --pick 2 --bodies 2 --out posts/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetStringArray("topic")
		pick, _ := cmd.Flags().GetInt("pick")
		bodies, _ := cmd.Flags().GetInt("bodies")
		images, _ := cmd.Flags().GetInt("images")
		out, _ := cmd.Flags().GetString("out")
		parallel, _ := cmd.Flags().GetInt("parallel")

		if len(topics) == 0 {
			return errors.New("--topic is required")
		}
		if out == "-" && len(topics) > 1 {
			return errors.New("--out - writes a single topic only")
		}
		opts := writeOptions{Pick: pick, Bodies: bodies, Images: images}
		if err := opts.validate(); err != nil {
			return err
		}

		gateway, err := buildGateway()
		if err != nil {
			return err
		}
		creds, closeCreds, err := openCredentials()
		if err != nil {
			return err
		}
		defer closeCreds()
		exp := publisher.NewExporter(cfg.Author)

		g, gctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(parallel, 1))
		for _, topic := range topics {
			g.Go(func() error {
				m := workflow.New(gateway, creds, workflow.WithLogger(logger.With("topic", topic)))
				title, doc, err := writePost(gctx, m, exp, topic, opts)
				if err != nil {
					return fmt.Errorf("topic %q: %w", topic, err)
				}
				if out == "-" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), doc)
					return err
				}
				path, err := saveDocument(out, title, doc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		}
		return g.Wait()
	},
}

func init() {
	writeCmd.Flags().StringArray("topic", nil, "post topic (repeatable)")
	writeCmd.Flags().Int("pick", 1, "which proposed title to use, 1-based")
	writeCmd.Flags().Int("bodies", 1, "body versions to generate; the last one is exported")
	writeCmd.Flags().Int("images", 1, "header image versions to generate; the last one is exported")
	writeCmd.Flags().String("out", ".", `output directory, or "-" for stdout`)
	writeCmd.Flags().Int("parallel", 2, "topics written at the same time")

	rootCmd.AddCommand(writeCmd)
}

type writeOptions struct {
	Pick   int
	Bodies int
	Images int
}

func (o writeOptions) validate() error {
	if o.Pick < 1 {
		return errors.New("--pick must be at least 1")
	}
	if o.Bodies < 1 || o.Images < 1 {
		return errors.New("--bodies and --images must be at least 1")
	}
	return nil
}

// writePost drives m from TOPIC to PREVIEW and returns the chosen title and
// the exported document.
func writePost(ctx context.Context, m *workflow.Machine, exp workflow.Exporter, topic string, opts writeOptions) (string, string, error) {
	if err := m.SubmitTopic(ctx, topic); err != nil {
		return "", "", err
	}
	titles := m.Snapshot().Titles
	if opts.Pick > len(titles) {
		return "", "", fmt.Errorf("%w: --pick %d but only %d titles were proposed", workflow.ErrInvalidInput, opts.Pick, len(titles))
	}
	title := titles[opts.Pick-1]
	if err := m.SelectTitle(title); err != nil {
		return "", "", err
	}

	for range opts.Bodies {
		if _, err := m.GenerateBody(ctx); err != nil {
			return "", "", err
		}
	}
	if err := m.RequestStep(workflow.StepImage); err != nil {
		return "", "", err
	}
	for range opts.Images {
		if _, err := m.GenerateImage(ctx); err != nil {
			return "", "", err
		}
	}
	if err := m.RequestStep(workflow.StepPreview); err != nil {
		return "", "", err
	}
	doc, err := m.ExportDocument(exp)
	if err != nil {
		return "", "", err
	}
	return title, doc, nil
}

func saveDocument(dir, title, doc string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, slug(title)+".md")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// slug keeps letters and digits of any script and joins the rest with '-'.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "post"
	}
	return out
}

// credentialHint is printed when a run stops for a missing key.
func credentialHint(err error) string {
	if !errors.Is(err, workflow.ErrMissingCredential) {
		return ""
	}
	return fmt.Sprintf("set it with: blogwriter credentials set <%s>", strings.Join(kindNames(), "|"))
}

func kindNames() []string {
	names := make([]string, len(credentials.Kinds))
	for i, k := range credentials.Kinds {
		names[i] = string(k)
	}
	return names
}
