package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
	"github.com/tvkeep/tvkeep/internal/models"
	"github.com/tvkeep/tvkeep/internal/shared"
)

// Storage is the slice of the store the import/export workflows need.
type Storage interface {
	LoadTenant(userID string) (*models.Snapshot, error)
	Save(userID string, snap *models.Snapshot) error
	MergeWatchProgress(userID string, progress map[string]json.RawMessage) error
}

// ImportExportService implements conflict-resolving import, export and merge
// workflows for one user's collection.
type ImportExportService struct {
	store  Storage
	logger *log.Logger
}

// NewImportExportService creates a service backed by the given storage.
func NewImportExportService(store Storage, logger *log.Logger) *ImportExportService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ImportExportService{
		store:  store,
		logger: shared.WithLogger(logger, "component", "impex"),
	}
}

// ImportResult reports the outcome of an add-only import.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// TabImportResult reports the outcome of a tab import.
type TabImportResult struct {
	TabName          string `json:"tabName"`
	PlaylistsAdded   int    `json:"playlistsAdded"`
	PlaylistsUpdated int    `json:"playlistsUpdated"`
}

// ParsePlaylistPayload parses an import file into a list of playlists.
//
// Accepted shapes, tried in order: a single playlist object, an object with a
// "playlists" array, a bare array of playlist objects.
func ParsePlaylistPayload(data []byte) ([]models.Playlist, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: import file is not valid JSON: %v", shared.ErrValidation, err)
	}

	var single models.Playlist
	if err := json.Unmarshal(standardized, &single); err == nil && (single.ID != "" || single.Name != "") {
		single.Normalize()
		return []models.Playlist{single}, nil
	}

	var wrapper struct {
		Playlists []models.Playlist `json:"playlists"`
	}
	if err := json.Unmarshal(standardized, &wrapper); err == nil && wrapper.Playlists != nil {
		for i := range wrapper.Playlists {
			wrapper.Playlists[i].Normalize()
		}
		return wrapper.Playlists, nil
	}

	var list []models.Playlist
	if err := json.Unmarshal(standardized, &list); err == nil {
		for i := range list {
			list[i].Normalize()
		}
		return list, nil
	}

	return nil, fmt.Errorf("%w: import file is neither a playlist, a playlists object, nor a playlist array", shared.ErrValidation)
}

// ImportPlaylists performs an add-only import: candidates whose id is already
// present are skipped and counted, never mutated; the rest are appended in
// payload order with a single save.
func (s *ImportExportService) ImportPlaylists(userID string, data []byte) (*ImportResult, error) {
	candidates, err := ParsePlaylistPayload(data)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if candidates[i].ID == "" {
			candidates[i].ID = shared.GenerateID()
		}
		if err := candidates[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	}

	snap, err := s.store.LoadTenant(userID)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(snap.Playlists))
	for _, p := range snap.Playlists {
		existing[p.ID] = true
	}

	result := &ImportResult{}
	for _, candidate := range candidates {
		if existing[candidate.ID] {
			result.Skipped++
			continue
		}
		existing[candidate.ID] = true
		snap.Playlists = append(snap.Playlists, candidate)
		result.Added++
	}

	if err := s.store.Save(userID, snap); err != nil {
		return nil, err
	}

	s.logger.Info("imported playlists", "user", userID, "added", result.Added, "skipped", result.Skipped)
	return result, nil
}

// OverwritePlaylist replaces the content of an existing playlist in place. The
// original id is kept regardless of any id in the replacement payload, so tab
// references stay valid. Fails with [shared.ErrNotFound] when the id is absent.
func (s *ImportExportService) OverwritePlaylist(userID, playlistID string, data []byte) error {
	candidates, err := ParsePlaylistPayload(data)
	if err != nil {
		return err
	}
	if len(candidates) != 1 {
		return fmt.Errorf("%w: overwrite expects exactly one playlist, got %d", shared.ErrValidation, len(candidates))
	}

	replacement := candidates[0]
	if replacement.Name == "" {
		return fmt.Errorf("%w: replacement playlist needs a name", shared.ErrValidation)
	}

	snap, err := s.store.LoadTenant(userID)
	if err != nil {
		return err
	}

	target := -1
	for i, p := range snap.Playlists {
		if p.ID == playlistID {
			target = i
			break
		}
	}
	if target < 0 {
		return fmt.Errorf("%w: playlist %s does not exist for user %s", shared.ErrNotFound, playlistID, userID)
	}

	replacement.ID = playlistID
	snap.Playlists[target] = replacement

	if err := s.store.Save(userID, snap); err != nil {
		return err
	}

	s.logger.Info("overwrote playlist", "user", userID, "playlist", playlistID)
	return nil
}

// ExportTab projects one tab descriptor plus the playlists its id list
// references into an exportable document. Fails with [shared.ErrNotFound]
// when the index is out of range.
func (s *ImportExportService) ExportTab(userID string, index int) (*models.TabExport, error) {
	snap, err := s.store.LoadTenant(userID)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(snap.PlaylistTabs) {
		return nil, fmt.Errorf("%w: tab index %d out of range (user %s has %d tabs)",
			shared.ErrNotFound, index, userID, len(snap.PlaylistTabs))
	}

	tab := snap.PlaylistTabs[index]

	byID := make(map[string]models.Playlist, len(snap.Playlists))
	for _, p := range snap.Playlists {
		byID[p.ID] = p
	}

	doc := &models.TabExport{Tab: tab, Playlists: []models.Playlist{}}
	for _, id := range tab.PlaylistIDs {
		if p, ok := byID[id]; ok {
			doc.Playlists = append(doc.Playlists, p)
		}
	}

	return doc, nil
}

// ImportTab upserts each playlist of the document by id, then appends the
// document's tab descriptor as a new tab. A tab with a duplicate name is
// appended, never merged into the existing one.
func (s *ImportExportService) ImportTab(userID string, data []byte) (*TabImportResult, error) {
	doc, err := ParseTabDocument(data)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.LoadTenant(userID)
	if err != nil {
		return nil, err
	}

	position := make(map[string]int, len(snap.Playlists))
	for i, p := range snap.Playlists {
		position[p.ID] = i
	}

	result := &TabImportResult{TabName: doc.Tab.Name}
	for _, playlist := range doc.Playlists {
		if i, ok := position[playlist.ID]; ok {
			snap.Playlists[i] = playlist
			result.PlaylistsUpdated++
		} else {
			position[playlist.ID] = len(snap.Playlists)
			snap.Playlists = append(snap.Playlists, playlist)
			result.PlaylistsAdded++
		}
	}

	snap.PlaylistTabs = append(snap.PlaylistTabs, doc.Tab)

	if err := s.store.Save(userID, snap); err != nil {
		return nil, err
	}

	s.logger.Info("imported tab", "user", userID, "tab", doc.Tab.Name,
		"added", result.PlaylistsAdded, "updated", result.PlaylistsUpdated)
	return result, nil
}

// MergeWatchProgress shallow-merges new progress entries over the stored map.
func (s *ImportExportService) MergeWatchProgress(userID string, progress map[string]json.RawMessage) error {
	return s.store.MergeWatchProgress(userID, progress)
}

// ParseTabDocument parses a tab export document.
func ParseTabDocument(data []byte) (*models.TabExport, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: tab file is not valid JSON: %v", shared.ErrValidation, err)
	}

	var doc models.TabExport
	if err := json.Unmarshal(standardized, &doc); err != nil {
		return nil, fmt.Errorf("%w: tab file has unexpected shape: %v", shared.ErrValidation, err)
	}
	if doc.Tab.Name == "" {
		return nil, fmt.Errorf("%w: tab document is missing a tab name", shared.ErrValidation)
	}
	if doc.Tab.PlaylistIDs == nil {
		doc.Tab.PlaylistIDs = []string{}
	}
	for i := range doc.Playlists {
		doc.Playlists[i].Normalize()
		if err := doc.Playlists[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	}

	return &doc, nil
}

// WriteDocument marshals a document and writes it to path atomically, so an
// interrupted export never leaves a truncated file behind.
func WriteDocument(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
