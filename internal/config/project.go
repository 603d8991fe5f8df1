package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spachava753/assetpipe/internal/models"
)

// LoadProject reads name and version from a package.json. A missing file
// yields an empty Project so that banners still render.
func LoadProject(path string) (models.Project, error) {
	var p models.Project
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("package metadata not found", "path", path)
			return p, nil
		}
		return p, fmt.Errorf("reading package metadata: %w", err)
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing package metadata: %w", err)
	}
	return p, nil
}
