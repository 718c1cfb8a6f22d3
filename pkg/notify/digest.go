package notify

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

// Digest is the append-only local fallback sink: a human-readable
// markdown list of items that could not be delivered, kept for manual
// recovery.
type Digest struct {
	path string
}

// NewDigest creates a digest sink writing latest.md under dir
func NewDigest(dir string) (*Digest, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Digest{path: filepath.Join(dir, "latest.md")}, nil
}

// Write appends one item line to the digest
func (d *Digest) Write(item domain.Item) error {
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open digest: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("- **%s** — [%s](%s)\n", item.Title, item.Source, item.URL)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append digest: %w", err)
	}
	return nil
}

// Path returns the digest file location
func (d *Digest) Path() string {
	return d.path
}
