package metadata

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"photonotes/pkg/flickr"
	"photonotes/pkg/logger"
)

// Store writes the JSON and CSV reference dumps that accompany note
// creation. Everything here is for later inspection; notes render fine
// without the dumps, so callers usually just log a failed write.
//
// Layout below the base directory:
//
//	person/<owner>/user_<owner>.<date>.json   profile dump (photo notes)
//	blogs/<owner>/user_<owner>.<date>.json    profile dump (blog notes)
//	blogs/<owner>/images/<owner> <id>.json    photo detail dump
//	blogs/<owner>/images/<filename>           cached preview images
type Store struct {
	baseDir string
	logger  logger.Logger
	now     func() time.Time
}

func NewStore(baseDir string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{
		baseDir: baseDir,
		logger:  log,
		now:     time.Now,
	}
}

// SavePersonInfo dumps a raw profile payload for a photo note, stamped
// with the current date so older dumps stay around.
func (s *Store) SavePersonInfo(ownerID string, raw json.RawMessage) (string, error) {
	dir := filepath.Join(s.baseDir, "person", ownerID)
	return s.writeUserDump(dir, ownerID, raw)
}

// SaveBlogInfo dumps a raw profile payload for a blog note.
func (s *Store) SaveBlogInfo(ownerID string, raw json.RawMessage) (string, error) {
	dir := filepath.Join(s.baseDir, "blogs", ownerID)
	return s.writeUserDump(dir, ownerID, raw)
}

func (s *Store) writeUserDump(dir, ownerID string, raw json.RawMessage) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create dump directory: %w", err)
	}
	name := fmt.Sprintf("user_%s.%s.json", ownerID, s.now().Format("2006-01-02"))
	path := filepath.Join(dir, name)

	data, err := indentJSON(raw)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write profile dump: %w", err)
	}
	s.logger.DebugWithFields("wrote profile dump", map[string]interface{}{
		"owner": ownerID,
		"file":  path,
	})
	return path, nil
}

// SavePhotoInfo dumps a raw photo payload. The first dump for a photo
// keeps its plain name; later dumps go to a .current.json sibling so
// the initial and the latest version survive.
func (s *Store) SavePhotoInfo(ownerID, photoID string, raw json.RawMessage) (string, error) {
	dir := s.ImagesDir(ownerID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s %s.json", ownerID, photoID))
	if _, err := os.Stat(path); err == nil {
		path = path[:len(path)-len(".json")] + ".current.json"
	}

	data, err := indentJSON(raw)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write photo dump: %w", err)
	}
	s.logger.DebugWithFields("wrote photo dump", map[string]interface{}{
		"owner": ownerID,
		"photo": photoID,
		"file":  path,
	})
	return path, nil
}

// ImagesDir returns the per-owner image cache directory.
func (s *Store) ImagesDir(ownerID string) string {
	return filepath.Join(s.baseDir, "blogs", ownerID, "images")
}

// LoadImage returns a cached image, or nil when it was never fetched.
func (s *Store) LoadImage(ownerID, filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.ImagesDir(ownerID), filename))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached image: %w", err)
	}
	return data, nil
}

// SaveImage stores a downloaded image in the per-owner cache.
func (s *Store) SaveImage(ownerID, filename string, data []byte) (string, error) {
	dir := s.ImagesDir(ownerID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// WriteScanList dumps the photos walked during a failed stream search
// as "<owner> photos.csv" for manual inspection. Rows carry position,
// photo id and title, no header line. The file starts with a BOM so
// spreadsheet tools pick up the encoding.
func WriteScanList(dir, ownerID string, photos []flickr.StreamPhoto) (string, error) {
	if len(photos) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scan list directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s photos.csv", ownerID))

	var buf bytes.Buffer
	buf.WriteString("\ufeff")
	writer := csv.NewWriter(&buf)
	for i, photo := range photos {
		record := []string{strconv.Itoa(i + 1), photo.ID, photo.Title}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to format scan list: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to format scan list: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write scan list: %w", err)
	}
	return path, nil
}

// indentJSON pretty-prints a raw API payload for the dump files.
func indentJSON(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return nil, fmt.Errorf("failed to format payload: %w", err)
	}
	return buf.Bytes(), nil
}
