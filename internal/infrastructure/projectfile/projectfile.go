package projectfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is where `vercel link` writes the project descriptor
var DefaultPath = filepath.Join(".vercel", "project.json")

// ErrNotFound is returned when no descriptor exists at the given path
var ErrNotFound = errors.New("project descriptor not found")

// Descriptor is the subset of the linked project file envsync reads
type Descriptor struct {
	ProjectID string `json:"projectId"`
	OrgID     string `json:"orgId"`
}

// TeamID returns the org id when it identifies a team, empty otherwise.
func (d Descriptor) TeamID() string {
	if strings.HasPrefix(d.OrgID, "team_") {
		return d.OrgID
	}
	return ""
}

// Read loads and validates the descriptor at path.
func Read(path string) (Descriptor, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Descriptor{}, fmt.Errorf("read %s: %w", path, err)
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse %s: %w", path, err)
	}
	d.ProjectID = strings.TrimSpace(d.ProjectID)
	d.OrgID = strings.TrimSpace(d.OrgID)
	if d.ProjectID == "" {
		return Descriptor{}, fmt.Errorf("%s has no projectId", path)
	}
	return d, nil
}
