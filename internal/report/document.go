package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Document is a markdown file written append-only. Every Append opens the
// file, writes and closes it again, so no handle is held between writes.
// The first error is kept and later writes become no-ops.
type Document struct {
	path string
	err  error
}

// NewDocument truncates (or creates) the file at path.
func NewDocument(path string) *Document {
	d := &Document{path: path}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		d.err = fmt.Errorf("report: failed to create %s: %w", path, err)
		return d
	}
	if err := f.Close(); err != nil {
		d.err = fmt.Errorf("report: failed to create %s: %w", path, err)
	}
	return d
}

// Path returns the file the document writes to.
func (d *Document) Path() string { return d.path }

// Append writes text followed by a newline.
func (d *Document) Append(text string) {
	if d.err != nil {
		return
	}
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		d.err = fmt.Errorf("report: failed to open %s: %w", d.path, err)
		return
	}
	if _, err := f.WriteString(text + "\n"); err != nil {
		f.Close()
		d.err = fmt.Errorf("report: failed to write %s: %w", d.path, err)
		return
	}
	if err := f.Close(); err != nil {
		d.err = fmt.Errorf("report: failed to close %s: %w", d.path, err)
	}
}

// Appendf formats and appends one block.
func (d *Document) Appendf(format string, args ...any) {
	d.Append(fmt.Sprintf(format, args...))
}

// Err returns the first write error.
func (d *Document) Err() error { return d.err }

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// -- Text helpers ------------------------------------------------------------

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*\n\r\t]`)
	htmlAnchor     = regexp.MustCompile(`<a\s+href=["'](.*?)["'].*?>(.*?)</a>`)
	nonSlug        = regexp.MustCompile(`[^a-z0-9]+`)
)

// SanitizeFilename turns a display name into a file name: characters that are
// not allowed in paths become '_'.
func SanitizeFilename(name string) string {
	s := strings.TrimSpace(forbiddenChars.ReplaceAllString(name, "_"))
	if strings.Trim(s, ".") == "" {
		return strings.Repeat("_", len(s))
	}
	return s
}

// HTMLToMarkdownLinks rewrites <a href="url">text</a> into [text](url).
func HTMLToMarkdownLinks(text string) string {
	return htmlAnchor.ReplaceAllString(text, "[$2]($1)")
}

// slug is a lowercase ASCII form used for image file names.
func slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// wikiLink renders the cross-reference syntax [[path|text]].
func wikiLink(path, text string) string {
	return fmt.Sprintf("[[%s|%s]]", path, text)
}

// rankBand returns the sub-heading that opens position i (0-based) of a ranked list.
func rankBand(i int) (string, bool) {
	switch i {
	case 0:
		return "##### 1 to 10", true
	case 10:
		return "##### 11 to 25", true
	case 25:
		return "##### 26 to 40", true
	default:
		return "", false
	}
}

func formatDuration(ms int64) string {
	return fmt.Sprintf("%dmin, %.0fsec", ms/60000, float64(ms%60000)/1000)
}
