package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vdt/internal/domain"
)

// Save writes the run report to the JSON file, replacing the previous one.
func (s *JSONStorage) Save(report *domain.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	// Atomic replace
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Load reads the last run report from the JSON file.
func (s *JSONStorage) Load() (*domain.RunReport, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &report, nil
}
