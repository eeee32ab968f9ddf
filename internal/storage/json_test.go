package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdt/internal/config"
	"vdt/internal/domain"
)

func newStorage(t *testing.T) *JSONStorage {
	t.Helper()
	cfg := config.New()
	cfg.StorageDir = filepath.Join(t.TempDir(), "nested", "storage")
	return NewJSONStorage(cfg)
}

func TestJSONStorage_SaveAndLoad(t *testing.T) {
	s := newStorage(t)
	report := &domain.RunReport{
		Meta: domain.RunMeta{RunID: "run-1", Project: "android", Status: domain.StatusFailed, Error: "install failed", Shards: 2, Cases: 5},
		Instances: []domain.InstanceReport{
			{InstanceID: "i1", ShardIndex: 0, CaseCount: 3, Artifacts: []string{"a-androidTest.apk", "a.apk"}},
			{InstanceID: "i2", ShardIndex: 1, CaseCount: 2, InstallError: "upload: disk full"},
		},
	}

	require.NoError(t, s.Save(report))
	got, err := s.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(report, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestJSONStorage_LoadMissing(t *testing.T) {
	_, err := newStorage(t).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read report file")
}

func TestJSONStorage_LoadCorrupt(t *testing.T) {
	s := newStorage(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0644))

	_, err := s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse report")
}
