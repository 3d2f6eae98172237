package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))

	log, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, log)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns equal entries.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "journal.json")
	repo := NewFileRepository(file)

	at := time.Date(2024, 5, 1, 10, 0, 0, 123_000_000, time.UTC)
	want := alarm.NewClearLog()
	want.Mark("A1", at)
	want.Mark("A2", at.Add(time.Minute))

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Cleared, 2)
	require.True(t, got.Cleared["A1"].Equal(at))
	require.True(t, got.Cleared["A2"].Equal(at.Add(time.Minute)))

	_, err = os.Stat(file)
	require.NoError(t, err)
}

// TestFileRepository_Corrupted reports undecodable files.
func TestFileRepository_Corrupted(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"cleared":{"A1":"yesterday"}}`), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.ErrorContains(t, err, "A1")
}
