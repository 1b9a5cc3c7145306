package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BiradarScripts/Djaan/internal/extract"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDirSource_List(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.txt", "b")
	writeFile(t, root, "a.TXT", "a")
	writeFile(t, root, "notes/c.md", "c")
	writeFile(t, root, "notes/deep/d.txt", "d")
	writeFile(t, root, "image.png", "x")
	writeFile(t, root, ".git/config.txt", "hidden")
	writeFile(t, root, ".hidden.txt", "hidden")

	src := NewDirSource(root, nil, extract.NewExtractor())
	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.TXT", "b.txt", "notes/deep/d.txt"}, names)

	src = NewDirSource(root, []string{"txt", ".MD"}, extract.NewExtractor())
	names, err = src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.TXT", "b.txt", "notes/c.md", "notes/deep/d.txt"}, names)
}

func TestDirSource_ListMissingRoot(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "missing"), nil, nil).List(context.Background())
	assert.Error(t, err)
}

func TestDirSource_Read(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes/a.txt", "Hello <b>World</b>")
	ctx := context.Background()

	for _, src := range []*DirSource{
		NewDirSource(root, nil, extract.NewExtractor()),
		NewDirSource(root, nil, nil),
	} {
		text, err := src.Read(ctx, "notes/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "Hello <b>World</b>", text)

		_, err = src.Read(ctx, "notes/missing.txt")
		assert.True(t, errors.Is(err, ErrNotFound))

		_, err = src.Read(ctx, "../escape.txt")
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource(map[string]string{"b.txt": "two", "a.txt": "one"})
	ctx := context.Background()

	names, err := src.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)

	src.Set("c.txt", "three")
	src.Remove("a.txt")
	names, _ = src.List(ctx)
	assert.Equal(t, []string{"b.txt", "c.txt"}, names)

	text, err := src.Read(ctx, "c.txt")
	require.NoError(t, err)
	assert.Equal(t, "three", text)

	_, err = src.Read(ctx, "a.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}
