package app

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aipedia/internal/article"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func parseFragment(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFragmentLinksSummaryKeyword(t *testing.T) {
	r := newTestRenderer(t)
	doc := article.Empty()
	doc.Title = "Test"
	doc.Summary = "A cat."
	doc.PotentialHyperlinks = []string{"cat"}

	html, err := r.Fragment(doc, true)
	require.NoError(t, err)

	page := parseFragment(t, html)
	assert.Equal(t, "Test", strings.TrimSpace(page.Find("h1").Text()))

	link := page.Find(".summary a")
	require.Equal(t, 1, link.Length())
	href, _ := link.Attr("href")
	assert.Equal(t, "/cat", href)
	assert.Equal(t, "cat", link.Text())
	assert.Equal(t, "A cat.", strings.TrimSpace(page.Find(".summary").Text()))
}

func TestFragmentWithoutLinks(t *testing.T) {
	r := newTestRenderer(t)
	doc := article.Empty()
	doc.Title = "Test"
	doc.Summary = "A cat."
	doc.Sections = []article.Section{{Header: "Life", Content: "The cat sleeps."}}
	doc.PotentialHyperlinks = []string{"cat"}

	html, err := r.Fragment(doc, false)
	require.NoError(t, err)
	assert.Equal(t, 0, parseFragment(t, html).Find("a").Length())
}

func TestFragmentInfoCard(t *testing.T) {
	r := newTestRenderer(t)

	doc := article.Empty()
	doc.Title = "Test"
	html, err := r.Fragment(doc, true)
	require.NoError(t, err)
	assert.Equal(t, 0, parseFragment(t, html).Find(".info-card").Length(), "empty categories hide the card")

	doc.InfoCard = article.InfoCard{
		Categories: []string{"Species", "Habitat"},
		Values:     []string{"Felis catus"},
	}
	doc.PotentialHyperlinks = []string{"Felis catus"}
	html, err = r.Fragment(doc, true)
	require.NoError(t, err)

	page := parseFragment(t, html)
	require.Equal(t, 1, page.Find(".info-card").Length())
	assert.Equal(t, "Quick Facts", page.Find(".info-card h2").Text())

	rows := page.Find(".info-card tr")
	require.Equal(t, 2, rows.Length())
	assert.Equal(t, "Species", rows.Eq(0).Find(".category").Text())
	assert.Equal(t, "Felis catus", strings.TrimSpace(rows.Eq(0).Find(".value").Text()))
	assert.Equal(t, 0, rows.Eq(0).Find(".value p").Length(), "values render inline")
	href, _ := rows.Eq(0).Find(".value a").Attr("href")
	assert.Equal(t, "/felis-catus", href)
	assert.Equal(t, "", strings.TrimSpace(rows.Eq(1).Find(".value").Text()))
}

func TestFragmentSections(t *testing.T) {
	r := newTestRenderer(t)
	doc := article.Empty()
	doc.Title = "Test"
	doc.Sections = []article.Section{
		{Header: "History", Content: "First paragraph.\n\nSecond paragraph."},
		{Header: "See also", Content: "- not a list"},
	}

	html, err := r.Fragment(doc, true)
	require.NoError(t, err)

	sections := parseFragment(t, html).Find("section")
	require.Equal(t, 2, sections.Length())
	assert.Equal(t, "History", sections.Eq(0).Find("h2").Text())
	assert.Equal(t, 2, sections.Eq(0).Find("p").Length())
	assert.Equal(t, 0, sections.Eq(1).Find("li").Length())
	assert.Equal(t, "- not a list", strings.TrimSpace(sections.Eq(1).Find("p").Text()))
}

func TestFragmentEscapesModelMarkup(t *testing.T) {
	r := newTestRenderer(t)
	doc := article.Empty()
	doc.Title = "<b>Title</b>"
	doc.Summary = `<script>alert(1)</script> *bold* [x](javascript:alert(1))`

	html, err := r.Fragment(doc, true)
	require.NoError(t, err)

	page := parseFragment(t, html)
	assert.Equal(t, 0, page.Find("script").Length())
	assert.Equal(t, 0, page.Find("em").Length())
	assert.Equal(t, 0, page.Find("a").Length())
	assert.Equal(t, 0, page.Find("h1 b").Length())
	assert.Contains(t, page.Find(".summary").Text(), "<script>alert(1)</script>")
}

func TestMarkdownExport(t *testing.T) {
	r := newTestRenderer(t)
	doc := article.Empty()
	doc.Title = "Cats"
	doc.Summary = "A cat is a small mammal."
	doc.Sections = []article.Section{{Header: "Diet", Content: "Every mammal eats."}}
	doc.PotentialHyperlinks = []string{"mammal"}

	out, err := r.Markdown(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "# Cats")
	assert.Contains(t, out, "[mammal](/mammal)")
	assert.Contains(t, out, "Diet")
	assert.True(t, strings.HasSuffix(out, "\n"))
}
