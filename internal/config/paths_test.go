package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePathsHonoursHomeOverride(t *testing.T) {
	base := filepath.Join(t.TempDir(), "quilt-home")
	t.Setenv(HomeEnv, base)

	paths, err := ResolvePaths("quilt")
	if err != nil {
		t.Fatalf("resolve paths: %v", err)
	}
	if paths.BaseDir != base {
		t.Fatalf("unexpected base dir %q", paths.BaseDir)
	}
	if paths.DBPath != filepath.Join(base, "quilt.db") {
		t.Fatalf("unexpected db path %q", paths.DBPath)
	}

	info, err := os.Stat(paths.ExportDir)
	if err != nil {
		t.Fatalf("stat export dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("export dir is not a directory")
	}
}
