// internal/export/markdown.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PageExport represents one page to export
type PageExport struct {
	Text       string
	ChoiceUsed string
	ImageURL   string
}

// BookExport contains the data needed to export a book
type BookExport struct {
	ID        string
	Title     string
	Summary   string
	Tags      []string
	CreatedAt string // zone-less ISO-8601 as the server emits it
	Pages     []PageExport
}

// BuildMarkdown generates a formatted markdown string from a book
func BuildMarkdown(book *BookExport) string {
	var sb strings.Builder

	// Title header
	sb.WriteString("# ")
	sb.WriteString(book.Title)
	sb.WriteString("\n\n")

	// Metadata section
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("**Book ID:** `%s`\n\n", book.ID))
	if created := formatTimestamp(book.CreatedAt); created != "" {
		sb.WriteString(fmt.Sprintf("**Created:** %s\n\n", created))
	}
	if len(book.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("**Tags:** %s\n\n", strings.Join(book.Tags, ", ")))
	}

	// Rolling summary (if any pages were committed)
	if summary := strings.TrimSpace(book.Summary); summary != "" {
		sb.WriteString("## Story So Far\n\n")
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("---\n\n")

	// Pages section
	for i, page := range book.Pages {
		sb.WriteString(fmt.Sprintf("## Page %d\n\n", i+1))

		if choice := strings.TrimSpace(page.ChoiceUsed); choice != "" {
			sb.WriteString(fmt.Sprintf("*You chose: %s*\n\n", choice))
		}

		sb.WriteString(strings.TrimSpace(page.Text))
		sb.WriteString("\n")

		if page.ImageURL != "" {
			sb.WriteString(fmt.Sprintf("\n![Page %d illustration](%s)\n", i+1, page.ImageURL))
		}
		sb.WriteString("\n")

		// Add horizontal rule between pages (except after last)
		if i < len(book.Pages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from Fable on %s*\n", time.Now().Format("2006-01-02 15:04:05")))

	return sb.String()
}

// WriteMarkdown exports a book to a markdown file in the given directory
func WriteMarkdown(book *BookExport, baseDir string) (string, error) {
	filename := fmt.Sprintf("%s-%s.md", datePart(book.CreatedAt), sanitizeFilename(book.Title))

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(baseDir, filename)
	content := BuildMarkdown(book)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
}

// datePart extracts YYYY-MM-DD from a server timestamp for the export
// filename, falling back to today when the timestamp is unparseable.
func datePart(createdAt string) string {
	if len(createdAt) >= 10 {
		if _, err := time.Parse("2006-01-02", createdAt[:10]); err == nil {
			return createdAt[:10]
		}
	}
	return time.Now().Format("2006-01-02")
}

// formatTimestamp renders a zone-less ISO-8601 server timestamp for
// display. Returns "" when the value is missing or unparseable.
func formatTimestamp(ts string) string {
	if ts == "" {
		return ""
	}
	// Drop fractional seconds: 2026-08-25T12:34:56.789012 -> 2026-08-25T12:34:56
	if i := strings.IndexByte(ts, '.'); i > 0 {
		ts = ts[:i]
	}
	t, err := time.Parse("2006-01-02T15:04:05", ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// sanitizeFilename removes/replaces characters unsuitable for filenames
func sanitizeFilename(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces with hyphens
	name = strings.ReplaceAll(name, " ", "-")

	// Remove or replace problematic characters
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_':
			sb.WriteRune(r)
		default:
			// Skip other characters
		}
	}

	result := sb.String()

	// Collapse multiple hyphens
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}

	// Trim leading/trailing hyphens
	result = strings.Trim(result, "-")

	// Ensure non-empty
	if result == "" {
		result = "book"
	}

	// Limit length
	if len(result) > 50 {
		result = result[:50]
	}

	return result
}
