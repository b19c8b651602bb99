// Package corpus loads the source document the bot answers questions about.
package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmpty reports a document that produced no extractable text. Serving
// queries from an empty corpus is never valid, so callers treat this as fatal.
var ErrEmpty = errors.New("document has no extractable text")

// Document is an ordered sequence of raw page texts. Immutable once loaded.
type Document struct {
	Path  string
	Pages []string
}

// Load extracts page texts from the PDF at path.
// A missing or unreadable file is reported as-is; a readable document whose
// pages are all blank fails with ErrEmpty.
func Load(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc := &Document{Path: path}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", i, path, err)
		}
		doc.Pages = append(doc.Pages, text)
	}

	if strings.TrimSpace(doc.Text()) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return doc, nil
}

// Text returns the full document text, pages joined by newlines.
func (d *Document) Text() string {
	return strings.Join(d.Pages, "\n")
}

// Checksum returns the hex SHA-256 of the document text. The index stores it
// so a reused on-disk index can be detected as stale when the source changes.
func (d *Document) Checksum() string {
	sum := sha256.Sum256([]byte(d.Text()))
	return hex.EncodeToString(sum[:])
}
