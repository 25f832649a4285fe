// Package journal implements the entry repository: the single source of
// truth for active and soft-deleted entries, partner profile, and settings,
// plus the persistence round-trip to the key-value store.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/puchi-app/puchi/internal/apperr"
	"github.com/puchi-app/puchi/internal/compose"
	"github.com/puchi-app/puchi/internal/media"
	"github.com/puchi-app/puchi/internal/models"
	"github.com/puchi-app/puchi/internal/store"
)

// DefaultRetention is how long soft-deleted entries stay in the bin before
// the sweeper purges them.
const DefaultRetention = 30 * 24 * time.Hour

// ChangeCallback is invoked after each successful mutation. kind is one of
// "created", "updated", "deleted", "restored", "purged", "reset".
type ChangeCallback func(kind string, id uuid.UUID)

// persistReq carries one marshaled state snapshot to the writer goroutine.
// A request with a done channel and no payload is a flush barrier.
type persistReq struct {
	entries []byte
	bin     []byte
	done    chan struct{}
}

// Repository holds the journal state in memory and owns its persistence.
//
// Commands are serialized by a mutex; readers get value-copied snapshots.
// Every stored entry is deep-cloned on the way in and mutations replace
// whole elements, so a snapshot never observes partial updates. Disk writes
// go through a single writer goroutine: the in-memory state is immediately
// consistent while the durable copy trails by at most the queue depth.
type Repository struct {
	kv        *store.KV
	blobs     *media.Store
	retention time.Duration
	clock     func() time.Time
	onChange  ChangeCallback

	mu       sync.Mutex
	active   []models.Entry
	bin      []models.Entry
	partner  models.PartnerProfile
	settings models.Settings
	closed   bool

	saveCh chan persistReq
	done   chan struct{}
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces the wall clock, for tests.
func WithClock(fn func() time.Time) Option {
	return func(r *Repository) { r.clock = fn }
}

// WithRetention overrides the bin retention window.
func WithRetention(d time.Duration) Option {
	return func(r *Repository) { r.retention = d }
}

// WithChangeCallback registers an observer for repository mutations.
func WithChangeCallback(cb ChangeCallback) Option {
	return func(r *Repository) { r.onChange = cb }
}

// NewRepository creates an empty repository and starts its persistence
// writer. Call Load to restore persisted state and Close to flush and stop.
func NewRepository(kv *store.KV, blobs *media.Store, opts ...Option) *Repository {
	r := &Repository{
		kv:        kv,
		blobs:     blobs,
		retention: DefaultRetention,
		clock:     time.Now,
		settings:  models.DefaultSettings(),
		saveCh:    make(chan persistReq, 64),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.persistLoop()
	return r
}

// Close flushes pending writes and stops the persistence writer.
func (r *Repository) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.saveCh)
	r.mu.Unlock()
	<-r.done
}

// Flush blocks until every previously enqueued write has reached the store.
func (r *Repository) Flush() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	done := make(chan struct{})
	r.saveCh <- persistReq{done: done}
	r.mu.Unlock()
	<-done
}

func (r *Repository) persistLoop() {
	defer close(r.done)
	for req := range r.saveCh {
		if req.entries != nil {
			if err := r.kv.Put(store.KeyEntries, req.entries); err != nil {
				slog.Warn("journal: persist entries failed", slog.String("error", err.Error()))
			}
			if err := r.kv.Put(store.KeyRecentlyDeleted, req.bin); err != nil {
				slog.Warn("journal: persist bin failed", slog.String("error", err.Error()))
			}
		}
		if req.done != nil {
			close(req.done)
		}
	}
}

// persistLocked marshals both collections under the lock and hands the
// snapshot to the writer. Caller must hold r.mu.
func (r *Repository) persistLocked() {
	if r.closed {
		return
	}
	entries, err := json.Marshal(r.active)
	if err != nil {
		slog.Warn("journal: marshal entries failed", slog.String("error", err.Error()))
		return
	}
	bin, err := json.Marshal(r.bin)
	if err != nil {
		slog.Warn("journal: marshal bin failed", slog.String("error", err.Error()))
		return
	}
	r.saveCh <- persistReq{entries: entries, bin: bin}
}

func (r *Repository) notify(kind string, id uuid.UUID) {
	if r.onChange != nil {
		r.onChange(kind, id)
	}
}

// Load restores persisted state. Corrupt or missing keys degrade to empty
// values rather than failing startup, then an initial retention sweep runs.
func (r *Repository) Load() {
	r.mu.Lock()
	var active []models.Entry
	if r.kv.GetJSON(store.KeyEntries, &active) {
		r.active = active
	}
	var bin []models.Entry
	if r.kv.GetJSON(store.KeyRecentlyDeleted, &bin) {
		r.bin = bin
	}
	r.kv.GetJSON(store.KeyPartnerName, &r.partner.Name)
	r.kv.GetJSON(store.KeyPartnerPhoto, &r.partner.PhotoData)
	r.loadSettingsLocked()

	purged := r.sweepLocked(r.clock())
	if len(purged) > 0 {
		r.persistLocked()
	}
	activeN, binN := len(r.active), len(r.bin)
	r.mu.Unlock()

	r.cleanupPurged(purged)
	slog.Info("journal: loaded",
		slog.Int("active", activeN),
		slog.Int("bin", binN),
		slog.Int("purged", len(purged)))
}

func (r *Repository) loadSettingsLocked() {
	s := models.DefaultSettings()
	r.kv.GetJSON(store.KeyDailyReminderEnabled, &s.DailyReminderEnabled)
	r.kv.GetJSON(store.KeyBiometricAuthEnabled, &s.BiometricAuthEnabled)
	r.kv.GetJSON(store.KeyJournalingGoal, &s.JournalingGoal)
	r.kv.GetJSON(store.KeyReminderTime, &s.ReminderTime)
	r.kv.GetJSON(store.KeySelectedFilter, &s.SelectedFilter)
	r.kv.GetJSON(store.KeySortOption, &s.SortOption)
	r.kv.GetJSON(store.KeySortAscending, &s.SortAscending)
	r.settings = s
}

// validate rejects an entry before any mutation is applied.
func validate(e *models.Entry) error {
	if strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("%w: content is empty", apperr.ErrInvalid)
	}
	if !e.Mood.Valid() {
		return fmt.Errorf("%w: unknown mood %q", apperr.ErrInvalid, e.Mood)
	}
	for _, item := range e.MediaItems {
		if !item.Type.Valid() {
			return fmt.Errorf("%w: unknown media type %q", apperr.ErrInvalid, item.Type)
		}
		// File refs arrive from clients too; anything that could resolve
		// outside the media directory is rejected before it is stored.
		if item.Blob.IsFile() && !media.SafeName(item.Blob.Path) {
			return fmt.Errorf("%w: invalid media file reference %q", apperr.ErrInvalid, item.Blob.Path)
		}
	}
	return nil
}

// normalize applies the composer rules: derived title, merged and
// normalized tags. Soft-delete markers are owned by the repository and
// reset here.
func normalize(e *models.Entry) {
	e.Title = compose.DeriveTitle(e.Title, e.Content)
	e.Tags = compose.MergeTags(e.Tags, e.Content)
	e.IsDeleted = false
	e.DeletedDate = nil
}

func indexOf(entries []models.Entry, id uuid.UUID) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

// AddEntry validates, normalizes, and inserts the entry at the front of the
// active collection (newest-first convention). A zero ID gets a fresh one;
// an ID already known to either collection is rejected.
func (r *Repository) AddEntry(e models.Entry) (models.Entry, error) {
	if err := validate(&e); err != nil {
		return models.Entry{}, err
	}

	r.mu.Lock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if indexOf(r.active, e.ID) >= 0 || indexOf(r.bin, e.ID) >= 0 {
		r.mu.Unlock()
		return models.Entry{}, fmt.Errorf("%w: entry %s", apperr.ErrAlreadyExists, e.ID)
	}
	if e.Date.IsZero() {
		e.Date = r.clock()
	}
	normalize(&e)
	stored := e.Clone()
	r.active = append([]models.Entry{stored}, r.active...)
	r.persistLocked()
	r.mu.Unlock()

	r.notify("created", e.ID)
	return stored, nil
}

// UpdateEntry replaces the active entry with a matching ID and removes the
// backing files of media items the new revision no longer references.
func (r *Repository) UpdateEntry(e models.Entry) (models.Entry, error) {
	if err := validate(&e); err != nil {
		return models.Entry{}, err
	}

	r.mu.Lock()
	i := indexOf(r.active, e.ID)
	if i < 0 {
		r.mu.Unlock()
		return models.Entry{}, fmt.Errorf("%w: entry %s", apperr.ErrNotFound, e.ID)
	}
	normalize(&e)
	stored := e.Clone()
	dropped := droppedFileRefs(r.active[i], stored)
	r.active[i] = stored
	r.persistLocked()
	r.mu.Unlock()

	for _, ref := range dropped {
		r.blobs.Delete(ref)
	}
	r.notify("updated", e.ID)
	return stored, nil
}

// droppedFileRefs returns the file refs the old revision owned that the new
// revision no longer carries. Backing file names are unique per item, so a
// path absent from the new revision has no remaining owner.
func droppedFileRefs(old, updated models.Entry) []models.BlobRef {
	kept := make(map[string]struct{})
	for _, item := range updated.MediaItems {
		if item.Blob.IsFile() {
			kept[item.Blob.Path] = struct{}{}
		}
	}
	var dropped []models.BlobRef
	for _, item := range old.MediaItems {
		if !item.Blob.IsFile() {
			continue
		}
		if _, ok := kept[item.Blob.Path]; !ok {
			dropped = append(dropped, item.Blob)
		}
	}
	return dropped
}

// DeleteEntry moves an active entry to the front of the bin, stamping the
// soft-delete markers, then runs the retention sweep. Callers treating a
// missing ID as benign may ignore the ErrNotFound.
func (r *Repository) DeleteEntry(id uuid.UUID) error {
	r.mu.Lock()
	i := indexOf(r.active, id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: entry %s", apperr.ErrNotFound, id)
	}
	e := r.active[i]
	r.active = append(r.active[:i:i], r.active[i+1:]...)

	now := r.clock()
	e.IsDeleted = true
	e.DeletedDate = &now
	r.bin = append([]models.Entry{e}, r.bin...)

	purged := r.sweepLocked(now)
	r.persistLocked()
	r.mu.Unlock()

	r.cleanupPurged(purged)
	r.notify("deleted", id)
	return nil
}

// RestoreEntry moves a bin entry back to the front of the active
// collection, clearing the soft-delete markers.
func (r *Repository) RestoreEntry(id uuid.UUID) error {
	r.mu.Lock()
	i := indexOf(r.bin, id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: entry %s", apperr.ErrNotFound, id)
	}
	e := r.bin[i]
	r.bin = append(r.bin[:i:i], r.bin[i+1:]...)

	e.IsDeleted = false
	e.DeletedDate = nil
	r.active = append([]models.Entry{e}, r.active...)
	r.persistLocked()
	r.mu.Unlock()

	r.notify("restored", id)
	return nil
}

// PermanentlyDelete removes a bin entry and its media backing files.
// Irreversible.
func (r *Repository) PermanentlyDelete(id uuid.UUID) error {
	r.mu.Lock()
	i := indexOf(r.bin, id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: entry %s", apperr.ErrNotFound, id)
	}
	e := r.bin[i]
	r.bin = append(r.bin[:i:i], r.bin[i+1:]...)
	r.persistLocked()
	r.mu.Unlock()

	r.blobs.CleanupEntry(e)
	r.notify("purged", id)
	return nil
}

// ResetAll clears active, bin, partner, and settings state, removes every
// persisted key, and deletes media backing files.
func (r *Repository) ResetAll() {
	r.mu.Lock()
	doomed := append(append([]models.Entry(nil), r.active...), r.bin...)
	r.active = nil
	r.bin = nil
	r.partner = models.PartnerProfile{}
	r.settings = models.DefaultSettings()

	// Drain queued snapshot writes before removing the keys: a snapshot
	// enqueued before the reset must not land after the delete and
	// resurrect the cleared state. Holding the lock keeps new writes out.
	if !r.closed {
		done := make(chan struct{})
		r.saveCh <- persistReq{done: done}
		<-done
	}
	if err := r.kv.Delete(
		store.KeyEntries, store.KeyRecentlyDeleted,
		store.KeyPartnerName, store.KeyPartnerPhoto,
		store.KeyDailyReminderEnabled, store.KeyBiometricAuthEnabled,
		store.KeyJournalingGoal, store.KeyReminderTime,
		store.KeySelectedFilter, store.KeySortOption, store.KeySortAscending,
	); err != nil {
		slog.Warn("journal: reset delete keys failed", slog.String("error", err.Error()))
	}
	r.mu.Unlock()

	for _, e := range doomed {
		r.blobs.CleanupEntry(e)
	}
	r.notify("reset", uuid.Nil)
}

// sweepLocked purges bin entries whose deletedDate is older than the
// retention window (full-timestamp comparison, not calendar day) and
// returns them for media cleanup outside the lock. Caller must hold r.mu.
func (r *Repository) sweepLocked(now time.Time) []models.Entry {
	cutoff := now.Add(-r.retention)
	kept := r.bin[:0:0]
	var purged []models.Entry
	for _, e := range r.bin {
		if e.DeletedDate != nil && e.DeletedDate.Before(cutoff) {
			purged = append(purged, e)
			continue
		}
		kept = append(kept, e)
	}
	r.bin = kept
	for _, e := range purged {
		slog.Info("journal: retention purge", slog.String("id", e.ID.String()))
	}
	return purged
}

// cleanupPurged removes backing files for swept entries. Best-effort: a
// failed file delete is logged by the blob store and never retried.
func (r *Repository) cleanupPurged(purged []models.Entry) {
	for _, e := range purged {
		r.blobs.CleanupEntry(e)
	}
	for _, e := range purged {
		r.notify("purged", e.ID)
	}
}

// Entries returns a snapshot of the active collection, in storage order.
func (r *Repository) Entries() []models.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Entry(nil), r.active...)
}

// Entry returns a copy of the active entry with the given ID.
func (r *Repository) Entry(id uuid.UUID) (models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := indexOf(r.active, id); i >= 0 {
		return r.active[i].Clone(), nil
	}
	return models.Entry{}, fmt.Errorf("%w: entry %s", apperr.ErrNotFound, id)
}

// RecentlyDeleted returns a snapshot of the bin, newest-deleted-first.
func (r *Repository) RecentlyDeleted() []models.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Entry(nil), r.bin...)
}

// FilteredEntries derives a searched, filtered, sorted view of the active
// collection without mutating it.
func (r *Repository) FilteredEntries(q Query) []models.Entry {
	return Apply(r.Entries(), q, r.clock())
}

// Partner returns the stored partner profile.
func (r *Repository) Partner() models.PartnerProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.partner
}

// SetPartner validates and persists the partner profile.
func (r *Repository) SetPartner(p models.PartnerProfile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: partner name is empty", apperr.ErrInvalid)
	}
	r.mu.Lock()
	r.partner = p
	if err := r.kv.PutJSON(store.KeyPartnerName, p.Name); err != nil {
		slog.Warn("journal: persist partner name failed", slog.String("error", err.Error()))
	}
	if err := r.kv.PutJSON(store.KeyPartnerPhoto, p.PhotoData); err != nil {
		slog.Warn("journal: persist partner photo failed", slog.String("error", err.Error()))
	}
	r.mu.Unlock()
	return nil
}

// Settings returns the stored UI preferences.
func (r *Repository) Settings() models.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// SetSettings persists UI preferences, one storage key per field.
func (r *Repository) SetSettings(s models.Settings) error {
	if s.JournalingGoal <= 0 {
		return fmt.Errorf("%w: journaling goal must be positive", apperr.ErrInvalid)
	}
	if !Filter(s.SelectedFilter).Valid() {
		return fmt.Errorf("%w: unknown filter %q", apperr.ErrInvalid, s.SelectedFilter)
	}
	if !SortField(s.SortOption).Valid() {
		return fmt.Errorf("%w: unknown sort option %q", apperr.ErrInvalid, s.SortOption)
	}
	r.mu.Lock()
	r.settings = s
	pairs := []struct {
		key string
		val any
	}{
		{store.KeyDailyReminderEnabled, s.DailyReminderEnabled},
		{store.KeyBiometricAuthEnabled, s.BiometricAuthEnabled},
		{store.KeyJournalingGoal, s.JournalingGoal},
		{store.KeyReminderTime, s.ReminderTime},
		{store.KeySelectedFilter, s.SelectedFilter},
		{store.KeySortOption, s.SortOption},
		{store.KeySortAscending, s.SortAscending},
	}
	for _, p := range pairs {
		if err := r.kv.PutJSON(p.key, p.val); err != nil {
			slog.Warn("journal: persist setting failed", slog.String("key", p.key), slog.String("error", err.Error()))
		}
	}
	r.mu.Unlock()
	return nil
}

// StoreMedia writes attachment bytes through the blob store and returns a
// MediaItem ready to be attached to an entry.
func (r *Repository) StoreMedia(data []byte, t models.MediaType, caption string) (models.MediaItem, error) {
	if !t.Valid() {
		return models.MediaItem{}, fmt.Errorf("%w: unknown media type %q", apperr.ErrInvalid, t)
	}
	if len(data) == 0 {
		return models.MediaItem{}, fmt.Errorf("%w: media data is empty", apperr.ErrInvalid)
	}
	return r.blobs.NewItem(data, t, caption, r.clock()), nil
}

// ReadMedia resolves a media item by ID across both collections and returns
// its bytes. Missing backing files degrade to empty bytes; an unknown ID
// reports false.
func (r *Repository) ReadMedia(id uuid.UUID) ([]byte, bool) {
	r.mu.Lock()
	var found *models.MediaItem
	for _, coll := range [][]models.Entry{r.active, r.bin} {
		for i := range coll {
			for j := range coll[i].MediaItems {
				if coll[i].MediaItems[j].ID == id {
					item := coll[i].MediaItems[j]
					found = &item
				}
			}
		}
	}
	r.mu.Unlock()

	if found == nil {
		return nil, false
	}
	return r.blobs.ReadItem(*found), true
}

// MediaFiles returns the set of backing file names referenced by live media
// items, for the media watcher's reconciliation pass.
func (r *Repository) MediaFiles() map[string]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]struct{})
	for _, coll := range [][]models.Entry{r.active, r.bin} {
		for i := range coll {
			for _, item := range coll[i].MediaItems {
				if item.Blob.IsFile() {
					out[item.Blob.Path] = struct{}{}
				}
			}
		}
	}
	return out
}

// Now exposes the repository clock so derived computations share it.
func (r *Repository) Now() time.Time {
	return r.clock()
}
