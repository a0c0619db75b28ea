package converter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Converter turns a source document into Markdown. The worker depends only
// on this interface; implementations are interchangeable collaborators.
type Converter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// MarkdownConverter is the built-in converter for text-like formats:
// markdown and plain text pass through, CSV becomes a table, HTML is
// reduced to headings/paragraphs/lists, JSON is pretty-printed into a
// fenced block.
type MarkdownConverter struct {
	logger *zap.Logger
}

func NewMarkdownConverter(logger *zap.Logger) *MarkdownConverter {
	return &MarkdownConverter{logger: logger}
}

func (c *MarkdownConverter) Convert(ctx context.Context, path string) (string, error) {
	c.logger.Info("Starting conversion",
		zap.String("path", path),
	)

	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error("Failed to read file",
			zap.String("path", path),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	var markdown string
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown", ".txt":
		markdown = string(data)
	case ".csv":
		markdown, err = csvToMarkdown(data)
	case ".html", ".htm":
		markdown, err = htmlToMarkdown(data)
	case ".json":
		markdown, err = jsonToMarkdown(data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		c.logger.Error("Conversion failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return "", err
	}

	c.logger.Info("Conversion completed",
		zap.String("path", path),
		zap.Int("markdown_length", len(markdown)),
	)

	return markdown, nil
}

func csvToMarkdown(data []byte) (string, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var b strings.Builder
	writeTableRow(&b, records[0])

	sep := make([]string, len(records[0]))
	for i := range sep {
		sep[i] = "---"
	}
	writeTableRow(&b, sep)

	for _, record := range records[1:] {
		writeTableRow(&b, record)
	}
	return b.String(), nil
}

func writeTableRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

func htmlToMarkdown(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	var b strings.Builder
	renderNode(&b, doc)
	return strings.TrimSpace(b.String()) + "\n", nil
}

func renderNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "title":
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(n.Data[1] - '0')
			b.WriteString("\n\n" + strings.Repeat("#", level) + " " + nodeText(n) + "\n")
			return
		case "p":
			b.WriteString("\n\n" + nodeText(n) + "\n")
			return
		case "li":
			b.WriteString("\n- " + nodeText(n))
			return
		}
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			b.WriteString("\n" + text)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c)
	}
}

// nodeText flattens all text beneath n into a single whitespace-normalized
// line.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

func jsonToMarkdown(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", fmt.Errorf("failed to parse json: %w", err)
	}
	return "```json\n" + buf.String() + "\n```\n", nil
}
