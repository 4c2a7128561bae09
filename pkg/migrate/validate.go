package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks every .sql file in dir for a well-formed goose filename,
// a unique version stamp, and both Up and Down sections. An empty dir passes.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("empty migrations dir")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	byVersion := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}

		match := migrationFileRe.FindStringSubmatch(name)
		if match == nil {
			return fmt.Errorf("bad migration filename %q, want YYYYMMDDHHMMSS_name.sql", name)
		}
		if other, dup := byVersion[match[1]]; dup {
			return fmt.Errorf("version %s used by both %q and %q", match[1], other, name)
		}
		byVersion[match[1]] = name

		if err := checkAnnotations(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func checkAnnotations(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	body := string(raw)
	for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(body, marker) {
			return fmt.Errorf("%s is missing the %q annotation", filepath.Base(path), marker)
		}
	}
	return nil
}
