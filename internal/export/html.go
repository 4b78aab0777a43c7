// internal/export/html.go
package export

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
)

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { max-width: 42em; margin: 2em auto; padding: 0 1em; font-family: Georgia, serif; line-height: 1.6; }
h1, h2 { font-family: Helvetica, Arial, sans-serif; }
em { color: #555; }
img { max-width: 100%%; }
hr { border: none; border-top: 1px solid #ccc; margin: 2em 0; }
</style>
</head>
<body>
%s</body>
</html>
`

// WriteHTML exports a book to a standalone HTML file in the given
// directory. The markdown rendition is the source of truth; this just
// converts it and wraps it in a minimal page.
func WriteHTML(book *BookExport, baseDir string) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(BuildMarkdown(book)), &body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.html", datePart(book.CreatedAt), sanitizeFilename(book.Title))
	path := filepath.Join(baseDir, filename)

	content := fmt.Sprintf(htmlShell, html.EscapeString(book.Title), body.String())
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
}
