package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkharvest/pkg/models"
)

func sampleOutcomes(dir string) []models.Outcome {
	return []models.Outcome{
		{Artifact: &models.DownloadedArtifact{SourceURL: "https://example.com/b.pdf", Path: filepath.Join(dir, "b.pdf"), Size: 20}},
		{Artifact: &models.DownloadedArtifact{SourceURL: "https://example.com/a.pdf", Path: filepath.Join(dir, "a.pdf"), Size: 10, Reused: true}},
		{Failure: &models.DownloadFailure{SourceURL: "https://example.com/c.pdf", Err: errors.New("404 Not Found")}},
	}
}

func TestFromOutcomes(t *testing.T) {
	m := FromOutcomes("golang", "English", sampleOutcomes("/out"))

	_, err := uuid.Parse(m.BatchID)
	require.NoError(t, err)
	require.Len(t, m.Artifacts, 2)
	assert.Equal(t, "b.pdf", m.Artifacts[0].File)
	assert.True(t, m.Artifacts[1].Reused)
	require.Len(t, m.Failures, 1)
	assert.Equal(t, "404 Not Found", m.Failures[0].Error)
	assert.Equal(t, int64(30), m.TotalBytes())
}

func TestAddReplacesEarlierRecords(t *testing.T) {
	m := FromOutcomes("golang", "", sampleOutcomes("/out"))

	m.Add([]models.Outcome{
		{Artifact: &models.DownloadedArtifact{SourceURL: "https://example.com/c.pdf", Path: "/out/c.pdf", Size: 5}},
	})

	assert.Empty(t, m.Failures)
	assert.Len(t, m.Artifacts, 3)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	m := FromOutcomes("golang", "", sampleOutcomes(dir))

	path, err := m.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)
	assert.True(t, Exists(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m.BatchID, loaded.BatchID)
	require.Len(t, loaded.Artifacts, 2)
	assert.Equal(t, "a.pdf", loaded.Artifacts[0].File, "artifacts are sorted by file name")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("nope"), 0644))
	_, err = Load(dir)
	assert.ErrorContains(t, err, "unmarshal")
}

func TestMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0644))

	m := FromOutcomes("golang", "", sampleOutcomes(dir))
	missing := m.Missing(dir)
	require.Len(t, missing, 1)
	assert.Equal(t, "b.pdf", missing[0].File)
}
