package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the resolved application directories.
// This is the single source of truth for file paths: the data directory the
// PUFs are read from, the reports directory exports land in, and the logs
// directory.
type Paths struct {
	DataDir    string
	ReportsDir string
	LogsDir    string
}

// ResolvePaths turns the configured (possibly relative) directories into
// absolute paths anchored at the current working directory.
func (c *Config) ResolvePaths() (*Paths, error) {
	resolve := func(dir string) (string, error) {
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir), nil
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", dir, err)
		}
		return abs, nil
	}

	dataDir, err := resolve(c.Paths.DataDir)
	if err != nil {
		return nil, err
	}
	reportsDir, err := resolve(c.Paths.ReportsDir)
	if err != nil {
		return nil, err
	}
	logsDir, err := resolve(c.Paths.LogsDir)
	if err != nil {
		return nil, err
	}

	return &Paths{
		DataDir:    dataDir,
		ReportsDir: reportsDir,
		LogsDir:    logsDir,
	}, nil
}

// EnsureDirectories creates the writable directories if they are missing.
// The data directory is deliberately left alone: it is user-provided input
// and a missing one should surface as a load error, not be silently created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetDataPath returns the full path of a file inside the data directory.
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// GetReportPath returns the full path of a file inside the reports directory.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the full path of a file inside the logs directory.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
