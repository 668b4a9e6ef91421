package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"schoolbus-uitest/internal/application/port/output"
	"schoolbus-uitest/internal/domain/entity"
	"schoolbus-uitest/internal/infrastructure/dom"
)

var _ output.ArtifactStore = (*FileArtifactStore)(nil)

// FileArtifactStore writes failure snapshots under
// <root>/<run-id>/<scenario>/step-NN.{html,jpeg}.
type FileArtifactStore struct {
	root    string
	cleaner *dom.Cleaner
}

func NewFileArtifactStore(root string) *FileArtifactStore {
	return &FileArtifactStore{root: root, cleaner: dom.NewCleaner()}
}

func (s *FileArtifactStore) SaveSnapshot(runID, scenario string, step int, snap *entity.PageSnapshot) ([]string, error) {
	if snap == nil {
		return nil, nil
	}

	dir := filepath.Join(s.root, safeName(runID), safeName(scenario))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	base := filepath.Join(dir, fmt.Sprintf("step-%02d", step+1))
	var paths []string

	if snap.HTML != "" {
		page := fmt.Sprintf("<!-- url: %s -->\n<!-- title: %s -->\n%s\n",
			snap.URL, snap.Title, s.cleaner.Clean(snap.HTML))
		path := base + ".html"
		if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
			return paths, fmt.Errorf("write html snapshot: %w", err)
		}
		paths = append(paths, path)
	}

	if shot := snap.Screenshot; shot != nil && len(shot.Data) > 0 {
		ext := shot.Format
		if ext == "" {
			ext = "jpeg"
		}
		path := base + "." + ext
		if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
			return paths, fmt.Errorf("write screenshot: %w", err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
