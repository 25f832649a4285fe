// Package media implements the hybrid inline/file blob store for entry
// attachments. Small captures stay inline in the record; large voice and
// video captures are externalized to per-item files.
package media

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/puchi-app/puchi/internal/checksum"
	"github.com/puchi-app/puchi/internal/models"
)

// InlineThreshold is the default byte size at which blobs are externalized.
// Anything smaller stays inline in the serialized record.
const InlineThreshold = 1_000_000

// Store decides, per write, whether attachment bytes live inline in the
// record or in a file under the media directory.
type Store struct {
	dir       string
	threshold int
}

// NewStore creates a store rooted at dir. threshold <= 0 selects the
// default InlineThreshold. The directory is created lazily on first
// file write.
func NewStore(dir string, threshold int) *Store {
	if threshold <= 0 {
		threshold = InlineThreshold
	}
	return &Store{dir: dir, threshold: threshold}
}

// Dir returns the media directory path.
func (s *Store) Dir() string {
	return s.dir
}

// SafeName reports whether name is a plain file name that resolves inside
// the media directory. Refs deserialized from a record can carry anything,
// so absolute paths, separators, and traversal elements are all rejected.
func SafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if filepath.IsAbs(name) {
		return false
	}
	return filepath.Base(name) == name
}

// ext returns the file extension used for externalized blobs of type t:
// an audio container for voice captures, opaque binary for everything else.
func ext(t models.MediaType) string {
	if t == models.MediaVoice {
		return ".m4a"
	}
	return ".bin"
}

// Store keeps data inline when it is under the threshold, otherwise writes
// it to {id}.{ext} in the media directory and returns a file ref. A failed
// file write falls back to inline storage so a capture is never dropped.
func (s *Store) Store(data []byte, t models.MediaType, id uuid.UUID) models.BlobRef {
	if len(data) < s.threshold {
		return models.InlineRef(data)
	}
	name := id.String() + ext(t)
	if err := s.writeFile(name, data); err != nil {
		slog.Warn("media: externalize failed, keeping inline",
			slog.String("file", name),
			slog.Int("size", len(data)),
			slog.String("error", err.Error()))
		return models.InlineRef(data)
	}
	return models.FileRef(name)
}

// NewItem stores data and wraps the resulting ref in a MediaItem with a
// fresh id, the capture timestamp, and an integrity checksum.
func (s *Store) NewItem(data []byte, t models.MediaType, caption string, now time.Time) models.MediaItem {
	id := uuid.New()
	return models.MediaItem{
		ID:        id,
		Type:      t,
		Caption:   caption,
		DateAdded: now,
		Blob:      s.Store(data, t, id),
		Checksum:  checksum.Sum(data),
	}
}

// Read resolves a ref to bytes. A missing or unreadable backing file yields
// empty bytes rather than an error: media loss must not break rendering.
func (s *Store) Read(ref models.BlobRef) []byte {
	if !ref.IsFile() {
		return ref.Inline
	}
	if !SafeName(ref.Path) {
		slog.Warn("media: unsafe file ref rejected", slog.String("file", ref.Path))
		return []byte{}
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref.Path))
	if err != nil {
		slog.Warn("media: read failed", slog.String("file", ref.Path), slog.String("error", err.Error()))
		return []byte{}
	}
	return data
}

// ReadItem resolves the item's blob and verifies its recorded checksum.
// A mismatch is logged; the bytes are still returned.
func (s *Store) ReadItem(item models.MediaItem) []byte {
	data := s.Read(item.Blob)
	if item.Checksum != "" && len(data) > 0 && checksum.Sum(data) != item.Checksum {
		slog.Warn("media: checksum mismatch", slog.String("id", item.ID.String()))
	}
	return data
}

// Delete removes the backing file for file refs. Failure is logged and
// swallowed: deleting the owning entry must succeed even when cleanup fails.
func (s *Store) Delete(ref models.BlobRef) {
	if !ref.IsFile() {
		return
	}
	if !SafeName(ref.Path) {
		slog.Warn("media: unsafe file ref rejected", slog.String("file", ref.Path))
		return
	}
	if err := os.Remove(filepath.Join(s.dir, ref.Path)); err != nil && !os.IsNotExist(err) {
		slog.Warn("media: delete failed", slog.String("file", ref.Path), slog.String("error", err.Error()))
	}
}

// CleanupEntry deletes the backing files of every media item the entry owns.
func (s *Store) CleanupEntry(e models.Entry) {
	for _, item := range e.MediaItems {
		s.Delete(item.Blob)
	}
}

// writeFile atomically writes content: tmp file → fsync → rename.
func (s *Store) writeFile(name string, content []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("media: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".puchi-tmp-*")
	if err != nil {
		return fmt.Errorf("media: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("media: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("media: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("media: close temp: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("media: rename: %w", err)
	}
	success = true
	return nil
}
