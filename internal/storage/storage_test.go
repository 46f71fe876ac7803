package storage

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanExt(t *testing.T) {
	assert.Equal(t, "jpg", CleanExt("photo.jpg"))
	assert.Equal(t, "jpeg", CleanExt("photo.JPEG"))
	assert.Equal(t, "png", CleanExt("some/dir/photo.png"))
	assert.Equal(t, "webp", CleanExt("photo.webp?token=abc"))
	assert.Equal(t, "jpg", CleanExt("photo.exe"))
	assert.Equal(t, "jpg", CleanExt("noextension"))
	assert.Equal(t, "jpg", CleanExt(""))
}

func TestObjectPaths(t *testing.T) {
	assert.Equal(t, "Bills/u1/b1/0.jpg", BillImagePath("u1", "b1", 0, "jpg"))
	assert.Equal(t, "Bills/u1/b1/2.png", BillImagePath("u1", "b1", 2, "png"))
	assert.Equal(t, "Schemes/s1/poster.jpg", SchemePosterPath("s1", "jpg"))
	assert.Equal(t, "Products/p1/main.webp", ProductImagePath("p1", "webp"))
	assert.Equal(t, "Posters/po1.png", PosterPath("po1", "png"))
}

func TestSaveAndDelete(t *testing.T) {
	s := FileStorage{BaseDir: t.TempDir()}

	path := BillImagePath("u1", "b1", 0, "jpg")
	require.NoError(t, s.Save(path, []byte("image data")))

	content, err := os.ReadFile(filepath.Join(s.BaseDir, "Bills", "u1", "b1", "0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("image data"), content)

	require.NoError(t, s.Delete(path))
	_, err = os.ReadFile(filepath.Join(s.BaseDir, "Bills", "u1", "b1", "0.jpg"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing file is not an error.
	assert.NoError(t, s.Delete(path))
}

func TestSaveRejectsPathEscape(t *testing.T) {
	s := FileStorage{BaseDir: t.TempDir()}
	assert.Error(t, s.Save("../outside.jpg", []byte("x")))
	assert.Error(t, s.Save("Bills/../../outside.jpg", []byte("x")))
	assert.Error(t, s.Delete("../outside.jpg"))
}
