package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager places export files in one directory per job.
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreateJobOutputDir creates the directory holding a job's outputs
func (om *OutputManager) CreateJobOutputDir(jobID string) (string, error) {
	jobDir := filepath.Join(om.BaseOutputDir, jobID)

	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create job output directory: %w", err)
	}

	return jobDir, nil
}

// GetOutputFilePath generates a full path for an output file. Absolute paths
// are kept as given; relative ones are reduced to their base name inside the
// job directory.
func (om *OutputManager) GetOutputFilePath(jobID, fileName string) (string, error) {
	if filepath.IsAbs(fileName) {
		if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		return fileName, nil
	}

	jobDir, err := om.CreateJobOutputDir(jobID)
	if err != nil {
		return "", err
	}

	return filepath.Join(jobDir, filepath.Base(fileName)), nil
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".txt":
		return "text"
	default:
		return "unknown"
	}
}
