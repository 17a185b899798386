package proposal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Export writes the proposal as indented JSON to
// dir/proposal_<rfp id>_<generated at>.json and returns the path.
func Export(p *Proposal, dir string) (string, error) {
	if err := Validate(p); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, Filename(p))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create proposal file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("write proposal: %w", err)
	}

	return path, nil
}

// Filename returns the export file name of the proposal.
func Filename(p *Proposal) string {
	return fmt.Sprintf("proposal_%s_%s.json", safeName(p.RFPID), timestamp(p.GeneratedAt))
}

func timestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%06d", t.Format("2006-01-02T15-04-05"), t.Nanosecond()/int(time.Microsecond))
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.', ' ':
			return '_'
		}
		return r
	}, s)
}
