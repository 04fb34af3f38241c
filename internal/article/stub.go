package article

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubGenerator produces a placeholder article without calling a model. It
// is used when no API key is configured.
type StubGenerator struct {
	// Delay is slept between streamed chunks.
	Delay time.Duration
}

// Generate implements Generator.
func (s StubGenerator) Generate(ctx context.Context, topic string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := stubDocument(topic)
	return &doc, nil
}

// Stream implements Generator, revealing the article one field at a time.
func (s StubGenerator) Stream(ctx context.Context, topic string, fn func(Partial) error) error {
	doc := stubDocument(topic)

	chunks := []Partial{
		{Title: &doc.Title},
		{Summary: &doc.Summary},
	}
	for i := range doc.Sections {
		sections := doc.Sections[:i+1]
		chunks = append(chunks, Partial{Sections: &sections})
	}
	chunks = append(chunks,
		Partial{InfoCard: &doc.InfoCard},
		Partial{PotentialHyperlinks: &doc.PotentialHyperlinks},
	)

	for i, chunk := range chunks {
		if i > 0 && s.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

func stubDocument(topic string) Document {
	title := strings.TrimSpace(topic)
	if title == "" {
		title = "Wikipedia"
	}
	related := relatedTopics(title)

	return Document{
		Title: title,
		Summary: fmt.Sprintf("%s is a placeholder entry generated without access to a language model. "+
			"It outlines the topic and suggests related articles such as %s.", title, strings.Join(related, ", ")),
		Sections: []Section{
			{Header: "Overview", Content: fmt.Sprintf("Configure an API key to replace this placeholder for %s with generated prose.", title)},
			{Header: "History", Content: fmt.Sprintf("No history of %s has been written yet.", title)},
			{Header: "See also", Content: fmt.Sprintf("Continue with %s.", strings.Join(related[1:], " or "))},
		},
		InfoCard: InfoCard{
			Categories: []string{"Topic", "Status"},
			Values:     []string{title, "Placeholder"},
		},
		PotentialHyperlinks: related,
	}
}

func relatedTopics(title string) []string {
	return []string{
		"History of " + title,
		"Applications of " + title,
		"Controversies about " + title,
	}
}
