package app

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yuin/goldmark"

	"aipedia/internal/article"
)

// ArticleView is the template model for one article.
type ArticleView struct {
	Title        string
	Summary      template.HTML
	Sections     []SectionView
	InfoRows     []InfoRowView
	ShowInfoCard bool
}

// SectionView is a rendered article section.
type SectionView struct {
	Header string
	Body   template.HTML
}

// InfoRowView is a rendered info card row.
type InfoRowView struct {
	Category string
	Value    template.HTML
}

// Renderer turns article documents into HTML and Markdown.
type Renderer struct {
	markdown  goldmark.Markdown
	converter *md.Converter
	templates *template.Template
}

// NewRenderer parses the bundled templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"topicPath": TopicPath,
	}).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Renderer{
		markdown:  goldmark.New(),
		converter: md.NewConverter("", true, nil),
		templates: tmpl,
	}, nil
}

// View builds the template model for doc. When linked is set, every
// potential hyperlink found in the summary, sections, and info card values
// becomes a link to its own article.
func (r *Renderer) View(doc article.Document, linked bool) (ArticleView, error) {
	var keywords []string
	if linked {
		keywords = doc.PotentialHyperlinks
	}

	summary, err := r.paragraphs(Annotate(doc.Summary, keywords))
	if err != nil {
		return ArticleView{}, fmt.Errorf("render summary: %w", err)
	}

	view := ArticleView{
		Title:        doc.Title,
		Summary:      summary,
		Sections:     make([]SectionView, 0, len(doc.Sections)),
		ShowInfoCard: len(doc.InfoCard.Categories) > 0,
	}

	for i, section := range doc.Sections {
		body, err := r.paragraphs(Annotate(section.Content, keywords))
		if err != nil {
			return ArticleView{}, fmt.Errorf("render section %d: %w", i, err)
		}
		view.Sections = append(view.Sections, SectionView{Header: section.Header, Body: body})
	}

	for _, row := range doc.InfoCard.Rows() {
		value, err := r.inline(Annotate(row.Value, keywords))
		if err != nil {
			return ArticleView{}, fmt.Errorf("render info card %q: %w", row.Category, err)
		}
		view.InfoRows = append(view.InfoRows, InfoRowView{Category: row.Category, Value: value})
	}

	return view, nil
}

// Fragment renders doc with the article template alone, without the page
// around it.
func (r *Renderer) Fragment(doc article.Document, linked bool) (string, error) {
	view, err := r.View(doc, linked)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "article", view); err != nil {
		return "", fmt.Errorf("execute article: %w", err)
	}
	return buf.String(), nil
}

// Markdown renders the linked article and converts it to Markdown.
func (r *Renderer) Markdown(doc article.Document) (string, error) {
	fragment, err := r.Fragment(doc, true)
	if err != nil {
		return "", err
	}
	out, err := r.converter.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}

// Execute writes the named page template.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// paragraphs converts annotated text to block HTML.
func (r *Renderer) paragraphs(text string) (template.HTML, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(segmentsMarkdown(SplitMarked(text))), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// inline converts annotated text to HTML without the wrapping paragraph.
func (r *Renderer) inline(text string) (template.HTML, error) {
	out, err := r.paragraphs(text)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(out))
	if strings.HasPrefix(s, "<p>") && strings.HasSuffix(s, "</p>") && strings.Count(s, "<p>") == 1 {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "<p>"), "</p>")
	}
	return template.HTML(s), nil
}

// segmentsMarkdown writes segments as Markdown. Plain text is escaped so
// that model output is never interpreted as markup; blank lines still
// separate paragraphs.
func segmentsMarkdown(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Href == "" {
			b.WriteString(escapeMarkdown(seg.Text))
			continue
		}
		b.WriteString("[")
		b.WriteString(escapeMarkdown(seg.Text))
		b.WriteString("](")
		b.WriteString(seg.Href)
		b.WriteString(")")
	}
	return b.String()
}

func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lineStart := true
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(r)
			lineStart = true
			continue
		case lineStart && (r == ' ' || r == '\t'):
			// leading indentation would start a code block
			continue
		case r < 0x80 && isASCIIPunct(byte(r)):
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		lineStart = false
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}
