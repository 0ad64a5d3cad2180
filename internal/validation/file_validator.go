package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "marketpulse/internal/errors"
	"marketpulse/internal/files"
)

// FileValidator provides directory validation shared by the executables
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateInputDirectory checks that the data directory exists and contains
// at least one classifiable public use file.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return apperrors.NewValidationError(fmt.Sprintf("input directory %s does not exist", dir))
	}
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("stat directory %s: %v", dir, err))
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return apperrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir))
	}

	pufs, err := files.NewDiscovery(dir).FindPUFs()
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("scan directory %s: %v", dir, err))
	}
	if len(pufs) == 0 {
		v.logger.Error("No public use files found",
			slog.String("directory", dir))
		return apperrors.NewValidationError(fmt.Sprintf("no public use files found in %s", dir))
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", len(pufs)))
	return nil
}

// ValidateOutputDirectory ensures the output directory exists and is
// writable, probing with a throwaway file.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewValidationError(fmt.Sprintf("create output directory %s: %v", dir, err))
	}

	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0644); err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewValidationError(fmt.Sprintf("output directory %s is not writable: %v", dir, err))
	}
	os.Remove(probe)

	return nil
}
