package services

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tvkeep/tvkeep/internal/models"
	"github.com/tvkeep/tvkeep/internal/shared"
)

// fakeStorage keeps snapshots in memory and records save calls, standing in
// for the SQLite store.
type fakeStorage struct {
	snapshots map[string]*models.Snapshot
	saves     int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{snapshots: map[string]*models.Snapshot{}}
}

func (f *fakeStorage) LoadTenant(userID string) (*models.Snapshot, error) {
	if snap, ok := f.snapshots[userID]; ok {
		clone := *snap
		return &clone, nil
	}
	return models.EmptySnapshot(), nil
}

func (f *fakeStorage) Save(userID string, snap *models.Snapshot) error {
	if snap == nil {
		return shared.ErrInvalidArgument
	}
	snap.Normalize()
	f.snapshots[userID] = snap
	f.saves++
	return nil
}

func (f *fakeStorage) MergeWatchProgress(userID string, progress map[string]json.RawMessage) error {
	snap, _ := f.LoadTenant(userID)
	for id, entry := range progress {
		snap.VideoProgress[id] = entry
	}
	f.snapshots[userID] = snap
	return nil
}

func newTestService(t *testing.T) (*ImportExportService, *fakeStorage) {
	t.Helper()
	storage := newFakeStorage()
	return NewImportExportService(storage, shared.NewLogger(nil)), storage
}

func seedUser(t *testing.T, storage *fakeStorage, userID string, playlists ...models.Playlist) {
	t.Helper()
	snap := models.EmptySnapshot()
	snap.Playlists = playlists
	if err := storage.Save(userID, snap); err != nil {
		t.Fatalf("failed to seed user %s: %v", userID, err)
	}
	storage.saves = 0
}

func TestParsePlaylistPayload(t *testing.T) {
	t.Run("SingleObject", func(t *testing.T) {
		playlists, err := ParsePlaylistPayload([]byte(`{"id": "p1", "name": "Music"}`))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(playlists) != 1 || playlists[0].ID != "p1" {
			t.Errorf("unexpected playlists: %+v", playlists)
		}
	})

	t.Run("WrapperObject", func(t *testing.T) {
		playlists, err := ParsePlaylistPayload([]byte(`{"playlists": [{"id": "p1", "name": "A"}, {"id": "p2", "name": "B"}]}`))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(playlists) != 2 {
			t.Errorf("expected 2 playlists, got %d", len(playlists))
		}
	})

	t.Run("BareArray", func(t *testing.T) {
		playlists, err := ParsePlaylistPayload([]byte(`[{"id": "p1", "name": "A"}]`))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(playlists) != 1 {
			t.Errorf("expected 1 playlist, got %d", len(playlists))
		}
	})

	t.Run("ToleratesCommentsAndTrailingCommas", func(t *testing.T) {
		playlists, err := ParsePlaylistPayload([]byte(`{
			// exported by hand
			"id": "p1",
			"name": "Music",
		}`))
		if err != nil {
			t.Fatalf("expected lenient parse, got %v", err)
		}
		if playlists[0].Name != "Music" {
			t.Errorf("unexpected playlist: %+v", playlists[0])
		}
	})

	t.Run("RejectsGarbage", func(t *testing.T) {
		if _, err := ParsePlaylistPayload([]byte(`"just a string"`)); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestImportPlaylists(t *testing.T) {
	t.Run("AddOnly", func(t *testing.T) {
		svc, storage := newTestService(t)
		seedUser(t, storage, "alice", models.Playlist{ID: "p1", Name: "Existing", Videos: []string{"v1"}})

		payload := `{"playlists": [
			{"id": "p1", "name": "Hijack Attempt", "videos": ["evil"]},
			{"id": "p2", "name": "New One", "videos": ["v2"]}
		]}`

		result, err := svc.ImportPlaylists("alice", []byte(payload))
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if result.Added != 1 || result.Skipped != 1 {
			t.Errorf("expected 1 added / 1 skipped, got %+v", result)
		}

		snap := storage.snapshots["alice"]
		if len(snap.Playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(snap.Playlists))
		}
		// The colliding candidate must not have touched the stored playlist.
		if snap.Playlists[0].Name != "Existing" {
			t.Errorf("existing playlist was mutated: %+v", snap.Playlists[0])
		}
		if snap.Playlists[1].ID != "p2" {
			t.Errorf("expected p2 appended last, got %+v", snap.Playlists[1])
		}
		if storage.saves != 1 {
			t.Errorf("expected a single save, got %d", storage.saves)
		}
	})

	t.Run("ReimportIsIdempotent", func(t *testing.T) {
		svc, storage := newTestService(t)
		payload := `[{"id": "p1", "name": "Music"}, {"id": "p2", "name": "Talks"}]`

		if _, err := svc.ImportPlaylists("alice", []byte(payload)); err != nil {
			t.Fatalf("first import failed: %v", err)
		}
		result, err := svc.ImportPlaylists("alice", []byte(payload))
		if err != nil {
			t.Fatalf("second import failed: %v", err)
		}
		if result.Added != 0 || result.Skipped != 2 {
			t.Errorf("expected 0 added / 2 skipped, got %+v", result)
		}
		if len(storage.snapshots["alice"].Playlists) != 2 {
			t.Errorf("expected 2 playlists after reimport, got %d", len(storage.snapshots["alice"].Playlists))
		}
	})

	t.Run("AssignsIDWhenMissing", func(t *testing.T) {
		svc, storage := newTestService(t)

		result, err := svc.ImportPlaylists("alice", []byte(`{"name": "No ID Yet"}`))
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if result.Added != 1 {
			t.Errorf("expected 1 added, got %+v", result)
		}
		if storage.snapshots["alice"].Playlists[0].ID == "" {
			t.Error("expected a generated id")
		}
	})

	t.Run("RejectsNamelessPlaylist", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.ImportPlaylists("alice", []byte(`[{"id": "p1"}]`)); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestOverwritePlaylist(t *testing.T) {
	t.Run("ReplacesInPlaceKeepingID", func(t *testing.T) {
		svc, storage := newTestService(t)
		seedUser(t, storage, "alice",
			models.Playlist{ID: "p1", Name: "First"},
			models.Playlist{ID: "p2", Name: "Second", Videos: []string{"old"}},
		)

		err := svc.OverwritePlaylist("alice", "p2", []byte(`{"id": "something-else", "name": "Replaced", "videos": ["new"]}`))
		if err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}

		snap := storage.snapshots["alice"]
		if snap.Playlists[1].ID != "p2" {
			t.Errorf("expected original id kept, got %s", snap.Playlists[1].ID)
		}
		if snap.Playlists[1].Name != "Replaced" {
			t.Errorf("expected replaced content, got %+v", snap.Playlists[1])
		}
		if diff := cmp.Diff([]string{"new"}, snap.Playlists[1].Videos); diff != "" {
			t.Errorf("videos mismatch (-want +got):\n%s", diff)
		}
		if snap.Playlists[0].Name != "First" {
			t.Errorf("untouched playlist was modified: %+v", snap.Playlists[0])
		}
	})

	t.Run("MissingTarget", func(t *testing.T) {
		svc, storage := newTestService(t)
		seedUser(t, storage, "alice", models.Playlist{ID: "p1", Name: "Only"})

		err := svc.OverwritePlaylist("alice", "ghost", []byte(`{"name": "Replacement"}`))
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if storage.saves != 0 {
			t.Errorf("expected no save on failure, got %d", storage.saves)
		}
	})

	t.Run("RejectsMultiplePlaylists", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.OverwritePlaylist("alice", "p1", []byte(`[{"id": "a", "name": "A"}, {"id": "b", "name": "B"}]`))
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestExportTab(t *testing.T) {
	t.Run("ProjectsReferencedPlaylistsInTabOrder", func(t *testing.T) {
		svc, storage := newTestService(t)
		snap := models.EmptySnapshot()
		snap.Playlists = []models.Playlist{
			{ID: "p1", Name: "Music"},
			{ID: "p2", Name: "Talks"},
			{ID: "p3", Name: "Unreferenced"},
		}
		snap.PlaylistTabs = []models.Tab{
			{Name: "Favorites", PlaylistIDs: []string{"p2", "missing", "p1"}},
		}
		if err := storage.Save("alice", snap); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}

		doc, err := svc.ExportTab("alice", 0)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if doc.Tab.Name != "Favorites" {
			t.Errorf("unexpected tab: %+v", doc.Tab)
		}
		// Order follows the tab's id list and dangling ids are dropped.
		if len(doc.Playlists) != 2 || doc.Playlists[0].ID != "p2" || doc.Playlists[1].ID != "p1" {
			t.Errorf("unexpected projection: %+v", doc.Playlists)
		}
	})

	t.Run("IndexOutOfRange", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.ExportTab("alice", 0); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := svc.ExportTab("alice", -1); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for negative index, got %v", err)
		}
	})
}

func TestImportTab(t *testing.T) {
	t.Run("UpsertsPlaylistsAndAppendsTab", func(t *testing.T) {
		svc, storage := newTestService(t)
		seedUser(t, storage, "alice", models.Playlist{ID: "p1", Name: "Old Name"})

		payload := `{
			"tab": {"name": "Shared", "playlistIds": ["p1", "p9"]},
			"playlists": [
				{"id": "p1", "name": "Fresh Name"},
				{"id": "p9", "name": "Brand New"}
			]
		}`

		result, err := svc.ImportTab("alice", []byte(payload))
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if result.PlaylistsAdded != 1 || result.PlaylistsUpdated != 1 {
			t.Errorf("expected 1 added / 1 updated, got %+v", result)
		}

		snap := storage.snapshots["alice"]
		if snap.Playlists[0].Name != "Fresh Name" {
			t.Errorf("expected p1 updated in place, got %+v", snap.Playlists[0])
		}
		if len(snap.PlaylistTabs) != 1 || snap.PlaylistTabs[0].Name != "Shared" {
			t.Errorf("expected appended tab, got %+v", snap.PlaylistTabs)
		}
	})

	t.Run("DuplicateTabNameAppendsAnother", func(t *testing.T) {
		svc, storage := newTestService(t)
		payload := `{"tab": {"name": "Shared", "playlistIds": []}, "playlists": []}`

		for i := 0; i < 2; i++ {
			if _, err := svc.ImportTab("alice", []byte(payload)); err != nil {
				t.Fatalf("import %d failed: %v", i, err)
			}
		}
		if len(storage.snapshots["alice"].PlaylistTabs) != 2 {
			t.Errorf("expected 2 tabs, got %+v", storage.snapshots["alice"].PlaylistTabs)
		}
	})

	t.Run("RejectsNamelessTab", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.ImportTab("alice", []byte(`{"tab": {"playlistIds": []}, "playlists": []}`))
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestWriteDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	doc := &models.TabExport{
		Tab:       models.Tab{Name: "Shared", PlaylistIDs: []string{"p1"}},
		Playlists: []models.Playlist{{ID: "p1", Name: "Music", Videos: []string{}, Starred: []string{}}},
	}

	if err := WriteDocument(path, doc); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}

	parsed, err := ParseTabDocument(data)
	if err != nil {
		t.Fatalf("exported document does not parse: %v", err)
	}
	if diff := cmp.Diff(doc.Tab, parsed.Tab); diff != "" {
		t.Errorf("tab mismatch (-want +got):\n%s", diff)
	}
}
