package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"aipedia/internal/app"
	"aipedia/internal/article"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate one article and print it",
	Long: `Generate requests a single article from the configured provider and prints
it as JSON, Markdown, or an HTML fragment. With --stream the article is
requested incrementally and progress is reported on stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		stream, _ := cmd.Flags().GetBool("stream")
		switch format {
		case "json", "markdown", "html":
		default:
			return fmt.Errorf("unsupported format %q: use json, markdown, or html", format)
		}

		cfg, err := app.LoadConfig(v)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		generator, err := app.NewGenerator(cfg)
		if err != nil {
			return fmt.Errorf("init generator: %w", err)
		}

		topic := strings.TrimSpace(strings.Join(args, " "))
		var doc *article.Document
		if stream {
			doc, err = streamDocument(cmd, generator, topic, cmd.ErrOrStderr())
		} else {
			doc, err = generator.Generate(cmd.Context(), topic)
		}
		if err != nil {
			return fmt.Errorf("generate %q: %w", topic, err)
		}

		return writeDocument(cmd.OutOrStdout(), *doc, format)
	},
}

func init() {
	generateCmd.Flags().String("format", "markdown", "output format: json, markdown, or html")
	generateCmd.Flags().Bool("stream", false, "request the article incrementally and report progress on stderr")

	rootCmd.AddCommand(generateCmd)
}

// streamDocument merges every streamed chunk and reports the growing article
// on progress.
func streamDocument(cmd *cobra.Command, generator article.Generator, topic string, progress io.Writer) (*article.Document, error) {
	state := article.Empty()
	err := generator.Stream(cmd.Context(), topic, func(chunk article.Partial) error {
		state = article.Merge(state, chunk)
		fmt.Fprintf(progress, "... %q: %d sections, %d facts, %d links\n",
			state.Title, len(state.Sections), len(state.InfoCard.Categories), len(state.PotentialHyperlinks))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return &state, nil
}

func writeDocument(w io.Writer, doc article.Document, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	renderer, err := app.NewRenderer()
	if err != nil {
		return err
	}

	var out string
	if format == "markdown" {
		out, err = renderer.Markdown(doc)
	} else {
		out, err = renderer.Fragment(doc, true)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
