package patchengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_CreateModifyDelete(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "old.txt"), []byte("old"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep.txt"), []byte("keep"), 0o640))

	cs := domain.ChangeSet{Records: []domain.ChangeRecord{
		{Action: domain.ActionDelete, Path: "old.txt"},
		{Action: domain.ActionCreate, Path: "nested/new.txt", Content: []byte("new")},
		{Action: domain.ActionModify, Path: "keep.txt", Content: []byte("updated")},
	}}

	e := New()
	require.NoError(t, e.Apply(target, cs))

	_, err := os.Stat(filepath.Join(target, "old.txt"))
	assert.True(t, os.IsNotExist(err))

	got, err := os.ReadFile(filepath.Join(target, "nested/new.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	got, err = os.ReadFile(filepath.Join(target, "keep.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got)
}

func TestApply_DeleteMissingFileIsNoop(t *testing.T) {
	target := t.TempDir()
	cs := domain.ChangeSet{Records: []domain.ChangeRecord{
		{Action: domain.ActionDelete, Path: "never-existed.txt"},
	}}
	e := New()
	assert.NoError(t, e.Apply(target, cs))
}

func TestApply_BinDiffOverwritesInPlace(t *testing.T) {
	target := t.TempDir()
	original := []byte("0123456789")
	require.NoError(t, os.WriteFile(filepath.Join(target, "f.bin"), original, 0o640))

	cs := domain.ChangeSet{Records: []domain.ChangeRecord{
		{Action: domain.ActionBinDiff, Path: "f.bin", Offset: 3, Content: []byte("XYZ")},
	}}

	e := New()
	require.NoError(t, e.Apply(target, cs))

	got, err := os.ReadFile(filepath.Join(target, "f.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("012XYZ6789"), got)
}

func TestApply_BinDiffOutOfBoundsIsCorrupt(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "f.bin"), []byte("short"), 0o640))

	cs := domain.ChangeSet{Records: []domain.ChangeRecord{
		{Action: domain.ActionBinDiff, Path: "f.bin", Offset: 100, Content: []byte("XYZ")},
	}}

	e := New()
	err := e.Apply(target, cs)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindCorruptPatch))
}

func TestApply_BinDiffMissingTargetIsCorrupt(t *testing.T) {
	target := t.TempDir()
	cs := domain.ChangeSet{Records: []domain.ChangeRecord{
		{Action: domain.ActionBinDiff, Path: "missing.bin", Offset: 0, Content: []byte("X")},
	}}

	e := New()
	err := e.Apply(target, cs)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindCorruptPatch))
}

func TestApply_RoundTripWithSynthesize(t *testing.T) {
	prev := t.TempDir()
	cur := t.TempDir()
	target := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(prev, "a.txt"), []byte("hello"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("hello"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(cur, "a.txt"), []byte("goodbye"), 0o640))

	e := New()
	cs, err := e.Synthesize(prev, cur)
	require.NoError(t, err)
	require.NoError(t, e.Apply(target, cs))

	got, err := os.ReadFile(filepath.Join(target, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("goodbye"), got)
}
