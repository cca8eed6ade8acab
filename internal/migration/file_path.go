package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"golang.org/x/mod/modfile"
)

const modulePath = "github.com/elskow/gatehouse"

// Create writes a new, sequentially numbered SQL migration into dir, or into
// the repository's migrations directory when dir is empty. New files are
// embedded on the next build.
func Create(dir, name string) (string, error) {
	if name == "" {
		return "", errors.New("migration name is required")
	}

	if dir == "" {
		root, err := moduleRoot(".")
		if err != nil {
			return "", fmt.Errorf("failed to locate migrations directory: %w", err)
		}
		dir = filepath.Join(root, "migrations")
	}

	goose.SetSequential(true)
	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return "", fmt.Errorf("failed to create migration: %w", err)
	}
	return dir, nil
}

// moduleRoot walks up from start to the directory holding this module's
// go.mod. Other modules' go.mod files on the way are skipped.
func moduleRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		content, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		switch {
		case err == nil && modfile.ModulePath(content) == modulePath:
			return dir, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod for %s not found above %s", modulePath, start)
		}
		dir = parent
	}
}
