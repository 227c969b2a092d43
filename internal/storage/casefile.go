package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/storage"
)

// Case file operations (filesystem-backed)

func (r *RedisStorage) casesDir() string {
	return filepath.Join(r.dataDir, "cases")
}

func (r *RedisStorage) ListCaseFiles(ctx context.Context) (map[string]string, error) {
	cases := make(map[string]string)

	err := filepath.WalkDir(r.casesDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != casefile.Extension {
			return nil
		}

		cf, err := casefile.Load(path)
		if err != nil {
			r.logger.Warn("Failed to load case file", "path", path, "error", err)
			return nil
		}

		cases[cf.Name] = cf.FileName
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to walk cases directory", "error", err)
		return nil, fmt.Errorf("failed to list case files: %w", err)
	}

	return cases, nil
}

func (r *RedisStorage) GetCaseFile(ctx context.Context, filename string) (*casefile.CaseFile, error) {
	if filename != filepath.Base(filename) {
		return nil, fmt.Errorf("%w: %s", storage.ErrCaseFileNotFound, filename)
	}
	path := filepath.Join(r.casesDir(), filename)
	r.logger.Debug("Loading case file", "filename", filename, "full_path", path)

	cf, err := casefile.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrCaseFileNotFound, filename)
		}
		return nil, err
	}
	return cf, nil
}
