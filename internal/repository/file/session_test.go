package file

import (
	"os"
	"path/filepath"
	"testing"

	"dreambot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepo_LoadMissing(t *testing.T) {
	repo, err := NewSessionRepo(t.TempDir())
	require.NoError(t, err)

	s, err := repo.Load(123)

	assert.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionRepo_SaveAndLoad(t *testing.T) {
	repo, err := NewSessionRepo(t.TempDir())
	require.NoError(t, err)

	backup := "Анна"
	in := &domain.Session{
		State:      domain.StateEditName,
		Mode:       domain.ModeVoice,
		Name:       "Аня",
		Birth:      "15.06.1990",
		Email:      "a@b.com",
		Password:   "pw1",
		Token:      "tok-1",
		BackupName: &backup,
	}

	require.NoError(t, repo.Save(42, in))

	out, err := repo.Load(42)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, in, out)
}

func TestSessionRepo_SaveOverwrites(t *testing.T) {
	repo, err := NewSessionRepo(t.TempDir())
	require.NoError(t, err)

	first := &domain.Session{State: domain.StateAskName, Mode: domain.ModeText, Name: "Анна"}
	require.NoError(t, repo.Save(7, first))

	second := &domain.Session{State: domain.StateMenu, Mode: domain.ModeText}
	require.NoError(t, repo.Save(7, second))

	out, err := repo.Load(7)
	require.NoError(t, err)

	assert.Equal(t, domain.StateMenu, out.State)
	assert.Empty(t, out.Name)
}

func TestSessionRepo_LoadNormalizesUnknownState(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewSessionRepo(dir)
	require.NoError(t, err)

	raw := `{"state": "something_old", "mode": "smoke_signals"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "9.json"), []byte(raw), 0o644))

	out, err := repo.Load(9)
	require.NoError(t, err)

	assert.Equal(t, domain.StateMenu, out.State)
	assert.Equal(t, domain.ModeText, out.Mode)
}

func TestSessionRepo_RecordIsHumanReadable(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewSessionRepo(dir)
	require.NoError(t, err)

	require.NoError(t, repo.Save(5, &domain.Session{State: domain.StateMenu, Mode: domain.ModeText, Name: "Анна"}))

	data, err := os.ReadFile(filepath.Join(dir, "5.json"))
	require.NoError(t, err)

	assert.Contains(t, string(data), "\"state\": \"menu\"")
	assert.Contains(t, string(data), "Анна")
}
