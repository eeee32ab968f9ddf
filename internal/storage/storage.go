package storage

import (
	"vdt/internal/config"
	"vdt/internal/domain"
)

// Storage persists and loads the report of the last run (e.g. for the report viewer).
type Storage interface {
	Save(report *domain.RunReport) error
	Load() (*domain.RunReport, error)
}

// JSONStorage stores the report in a JSON file under the configured storage dir.
type JSONStorage struct {
	path string
}

// NewJSONStorage returns a Storage that reads/writes the config's report path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{path: cfg.GetReportPath()}
}

// Path returns the file the report is stored in
func (s *JSONStorage) Path() string {
	return s.path
}
