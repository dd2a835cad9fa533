package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the per-user base directory when set.
const HomeEnv = "QUILT_HOME"

type Paths struct {
	BaseDir   string
	DBPath    string
	ExportDir string
}

func ResolvePaths(appSlug string) (Paths, error) {
	baseDir := strings.TrimSpace(os.Getenv(HomeEnv))
	if baseDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve user config dir: %w", err)
		}
		baseDir = filepath.Join(configDir, appSlug)
	}

	return PathsIn(baseDir)
}

// PathsIn lays out the application directories under baseDir and creates
// them.
func PathsIn(baseDir string) (Paths, error) {
	exportDir := filepath.Join(baseDir, "exports")
	dbPath := filepath.Join(baseDir, "quilt.db")

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create app config dir: %w", err)
	}

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create export dir: %w", err)
	}

	return Paths{
		BaseDir:   baseDir,
		DBPath:    dbPath,
		ExportDir: exportDir,
	}, nil
}
