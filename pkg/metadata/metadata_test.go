package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photonotes/pkg/flickr"
	"photonotes/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir(), logger.NewTestLogger())
	s.now = func() time.Time {
		return time.Date(2024, 8, 15, 10, 30, 0, 0, time.UTC)
	}
	return s
}

func TestSavePersonInfo(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SavePersonInfo("11111111@N00", json.RawMessage(`{"id":"11111111@N00","username":{"_content":"janedoe"}}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.baseDir, "person", "11111111@N00", "user_11111111@N00.2024-08-15.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, string(data), "\n    ")
}

func TestSaveBlogInfo(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SaveBlogInfo("janedoe", json.RawMessage(`{"id":"11111111@N00"}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.baseDir, "blogs", "janedoe", "user_janedoe.2024-08-15.json"), path)
}

func TestSavePhotoInfoKeepsInitialDump(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SavePhotoInfo("janedoe", "9001", json.RawMessage(`{"id":"9001","title":{"_content":"v1"}}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.ImagesDir("janedoe"), "janedoe 9001.json"), first)

	second, err := s.SavePhotoInfo("janedoe", "9001", json.RawMessage(`{"id":"9001","title":{"_content":"v2"}}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.ImagesDir("janedoe"), "janedoe 9001.current.json"), second)

	// the initial dump is untouched, later dumps replace the current one
	third, err := s.SavePhotoInfo("janedoe", "9001", json.RawMessage(`{"id":"9001","title":{"_content":"v3"}}`))
	require.NoError(t, err)
	assert.Equal(t, second, third)

	initial, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Contains(t, string(initial), "v1")

	current, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(current), "v3")
}

func TestSavePhotoInfoBadPayload(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SavePhotoInfo("janedoe", "9001", json.RawMessage("{broken"))
	assert.Error(t, err)

	_, err = s.SavePersonInfo("janedoe", nil)
	assert.Error(t, err)
}

func TestImageCache(t *testing.T) {
	s := newTestStore(t)

	data, err := s.LoadImage("janedoe", "janedoe 9001 Sunrise_w.jpg")
	require.NoError(t, err)
	assert.Nil(t, data)

	path, err := s.SaveImage("janedoe", "janedoe 9001 Sunrise_w.jpg", []byte("image bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.ImagesDir("janedoe"), "janedoe 9001 Sunrise_w.jpg"), path)

	data, err = s.LoadImage("janedoe", "janedoe 9001 Sunrise_w.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)
}

func TestWriteScanList(t *testing.T) {
	dir := t.TempDir()
	photos := []flickr.StreamPhoto{
		{ID: "9001", Title: "Sunrise"},
		{ID: "9002", Title: "Dunes, at noon"},
	}

	path, err := WriteScanList(dir, "11111111@N00", photos)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "11111111@N00 photos.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "\ufeff"))
	assert.Contains(t, content, "1,9001,Sunrise\n")
	assert.Contains(t, content, "2,9002,\"Dunes, at noon\"\n")
}

func TestWriteScanListEmpty(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteScanList(dir, "11111111@N00", nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
