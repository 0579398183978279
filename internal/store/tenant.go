package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tvkeep/tvkeep/internal/models"
	"github.com/tvkeep/tvkeep/internal/shared"
)

// LoadTenant returns a user's complete snapshot, provisioning the user from
// the template on first access.
//
// Resolution order: an existing row is returned as-is; otherwise the template
// user is cloned (scalar fields verbatim, playlists copied with is_default=0
// and can_delete=1, playlist ids preserved so tab references stay valid);
// otherwise empty defaults are returned without persisting anything.
func (s *Store) LoadTenant(userID string) (*models.Snapshot, error) {
	var snap *models.Snapshot

	err := s.withConn(func(db *sql.DB) error {
		var err error
		snap, err = s.loadTenant(db, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *Store) loadTenant(db *sql.DB, userID string) (*models.Snapshot, error) {
	scalars, found, err := readScalars(db, userID)
	if err != nil {
		return nil, err
	}

	if !found && userID != models.TemplateUserID {
		cloned, err := s.provisionFromTemplate(db, userID)
		if err != nil {
			return nil, err
		}
		if !cloned {
			// No template at all; hand out defaults without creating a row.
			return models.EmptySnapshot(), nil
		}
		scalars, found, err = readScalars(db, userID)
		if err != nil {
			return nil, err
		}
	}

	if !found {
		return models.EmptySnapshot(), nil
	}

	playlists, err := readPlaylists(db, userID)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		Playlists:     playlists,
		PlaylistTabs:  unmarshalTabs(scalars.playlistTabs),
		CustomColors:  unmarshalRaw(scalars.customColors),
		ColorOrder:    unmarshalStrings(scalars.colorOrder),
		VideoProgress: unmarshalProgress(scalars.videoProgress),
	}
	snap.Normalize()
	return snap, nil
}

// provisionFromTemplate clones the template rows for userID inside one
// transaction. Returns false when no template user exists. The inserts are
// OR IGNORE, so a concurrent first access for the same user provisions once
// and proceeds as if the rows already existed.
func (s *Store) provisionFromTemplate(db *sql.DB, userID string) (bool, error) {
	var templateExists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE user_id = ?)", models.TemplateUserID).Scan(&templateExists)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check template user: %v", shared.ErrStorageFault, err)
	}
	if !templateExists {
		return false, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("%w: failed to begin provisioning transaction: %v", shared.ErrStorageFault, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR IGNORE INTO users (user_id, custom_colors, color_order, playlist_tabs, video_progress)
		SELECT ?, custom_colors, color_order, playlist_tabs, video_progress
		FROM users WHERE user_id = ?
	`, userID, models.TemplateUserID)
	if err != nil {
		return false, fmt.Errorf("%w: failed to provision user %s: %v", shared.ErrStorageFault, userID, err)
	}

	result, err := tx.Exec(`
		INSERT OR IGNORE INTO playlists (
			user_id, playlist_id, name, videos, groups, starred, is_default, can_delete,
			category, description, thumbnail, is_converted_from_colored_folder, representative_video_id
		)
		SELECT ?, playlist_id, name, videos, groups, starred, 0, 1,
		       category, description, thumbnail, is_converted_from_colored_folder, representative_video_id
		FROM playlists WHERE user_id = ? ORDER BY id ASC
	`, userID, models.TemplateUserID)
	if err != nil {
		return false, fmt.Errorf("%w: failed to copy template playlists to %s: %v", shared.ErrStorageFault, userID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: failed to commit provisioning transaction: %v", shared.ErrStorageFault, err)
	}

	if copied, err := result.RowsAffected(); err == nil {
		s.logger.Info("provisioned user from template", "user", userID, "playlists", copied)
	}

	return true, nil
}

// Save atomically replaces a user's entire playlist set and scalar fields.
//
// The scalar upsert, the delete of every existing playlist row, and the
// ordered reinsert happen in one transaction. After commit the playlist count
// is re-read; a mismatch against a non-empty input surfaces as
// [shared.ErrStorageFault] even though the write is already durable, because
// it indicates a storage-layer defect the caller must not ignore. Saving an
// empty playlist list is a valid clear operation.
func (s *Store) Save(userID string, snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot is required", shared.ErrInvalidArgument)
	}
	snap.Normalize()

	return s.withConn(func(db *sql.DB) error {
		if err := saveSnapshot(db, userID, snap); err != nil {
			return err
		}

		// Post-commit integrity check. Candidate hardening point: verifying
		// inside the transaction would prevent the mismatch instead of
		// detecting it after the fact.
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM playlists WHERE user_id = ?", userID).Scan(&count); err != nil {
			return fmt.Errorf("%w: failed to verify save: %v", shared.ErrStorageFault, err)
		}
		if count != len(snap.Playlists) && len(snap.Playlists) > 0 {
			return fmt.Errorf("%w: save verification failed for user %s: saved %d playlists, store has %d",
				shared.ErrStorageFault, userID, len(snap.Playlists), count)
		}

		s.logger.Debug("saved user snapshot", "user", userID, "playlists", count)
		return nil
	})
}

func saveSnapshot(db *sql.DB, userID string, snap *models.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin save transaction: %v", shared.ErrStorageFault, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO users (user_id, custom_colors, color_order, playlist_tabs, video_progress, updated_at)
		VALUES (?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(user_id) DO UPDATE SET
			custom_colors = excluded.custom_colors,
			color_order = excluded.color_order,
			playlist_tabs = excluded.playlist_tabs,
			video_progress = excluded.video_progress,
			updated_at = strftime('%s', 'now')
	`,
		userID,
		string(snap.CustomColors),
		marshalJSON(snap.ColorOrder),
		marshalJSON(snap.PlaylistTabs),
		marshalJSON(snap.VideoProgress),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert user %s: %v", shared.ErrStorageFault, userID, err)
	}

	if _, err := tx.Exec("DELETE FROM playlists WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("%w: failed to clear playlists for %s: %v", shared.ErrStorageFault, userID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO playlists (
			user_id, playlist_id, name, videos, groups, starred, is_default, can_delete,
			category, description, thumbnail, is_converted_from_colored_folder, representative_video_id, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, 0, 1, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare playlist insert: %v", shared.ErrStorageFault, err)
	}
	defer stmt.Close()

	for _, playlist := range snap.Playlists {
		_, err := stmt.Exec(
			userID,
			playlist.ID,
			playlist.Name,
			marshalJSON(playlist.Videos),
			string(playlist.Groups),
			marshalJSON(playlist.Starred),
			nullable(playlist.Category),
			nullable(playlist.Description),
			nullable(playlist.Thumbnail),
			boolToInt(playlist.IsConvertedFromColoredFolder),
			nullable(playlist.RepresentativeVideoID),
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert playlist %s for %s: %v", shared.ErrStorageFault, playlist.ID, userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit save transaction: %v", shared.ErrStorageFault, err)
	}

	return nil
}

// MergeWatchProgress shallow-merges new progress entries over a user's stored
// progress map. New values overwrite old ones at matching keys; nothing is
// deleted. Only the scalar row is touched.
func (s *Store) MergeWatchProgress(userID string, progress map[string]json.RawMessage) error {
	if len(progress) == 0 {
		return nil
	}

	return s.withConn(func(db *sql.DB) error {
		var stored sql.NullString
		err := db.QueryRow("SELECT video_progress FROM users WHERE user_id = ?", userID).Scan(&stored)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("%w: failed to read progress for %s: %v", shared.ErrStorageFault, userID, err)
		}

		merged := unmarshalProgress(stored)
		for id, value := range progress {
			merged[id] = value
		}

		_, err = db.Exec(`
			INSERT INTO users (user_id, video_progress, updated_at)
			VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT(user_id) DO UPDATE SET
				video_progress = excluded.video_progress,
				updated_at = strftime('%s', 'now')
		`, userID, marshalJSON(merged))
		if err != nil {
			return fmt.Errorf("%w: failed to merge progress for %s: %v", shared.ErrStorageFault, userID, err)
		}

		return nil
	})
}

// ListTenants returns every known user id ordered by creation, excluding the
// reserved template identity.
func (s *Store) ListTenants() ([]string, error) {
	var users []string

	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(
			"SELECT user_id FROM users WHERE user_id != ? ORDER BY created_at ASC, user_id ASC",
			models.TemplateUserID,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to query users: %v", shared.ErrStorageFault, err)
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("%w: failed to scan user id: %v", shared.ErrStorageFault, err)
			}
			users = append(users, id)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("%w: row iteration error: %v", shared.ErrStorageFault, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if users == nil {
		users = []string{}
	}
	return users, nil
}

// scalarRow holds the raw JSON text columns of one users row.
type scalarRow struct {
	customColors  sql.NullString
	colorOrder    sql.NullString
	playlistTabs  sql.NullString
	videoProgress sql.NullString
}

func readScalars(db *sql.DB, userID string) (scalarRow, bool, error) {
	var row scalarRow
	err := db.QueryRow(
		"SELECT custom_colors, color_order, playlist_tabs, video_progress FROM users WHERE user_id = ?",
		userID,
	).Scan(&row.customColors, &row.colorOrder, &row.playlistTabs, &row.videoProgress)
	if err == sql.ErrNoRows {
		return row, false, nil
	}
	if err != nil {
		return row, false, fmt.Errorf("%w: failed to query user %s: %v", shared.ErrStorageFault, userID, err)
	}
	return row, true, nil
}

// readPlaylists returns a user's playlists in insertion order, which is the
// order the last save supplied them in.
func readPlaylists(db *sql.DB, userID string) ([]models.Playlist, error) {
	rows, err := db.Query(`
		SELECT playlist_id, name, videos, groups, starred, is_default, can_delete,
		       category, description, thumbnail, is_converted_from_colored_folder, representative_video_id
		FROM playlists WHERE user_id = ? ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlists for %s: %v", shared.ErrStorageFault, userID, err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var (
			p           models.Playlist
			videos      sql.NullString
			groups      sql.NullString
			starred     sql.NullString
			isDefault   int
			canDelete   int
			category    sql.NullString
			description sql.NullString
			thumbnail   sql.NullString
			converted   int
			repVideo    sql.NullString
		)

		err := rows.Scan(&p.ID, &p.Name, &videos, &groups, &starred, &isDefault, &canDelete,
			&category, &description, &thumbnail, &converted, &repVideo)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan playlist: %v", shared.ErrStorageFault, err)
		}

		p.Videos = unmarshalStrings(videos)
		p.Groups = unmarshalRaw(groups)
		p.Starred = unmarshalStrings(starred)
		p.IsDefault = isDefault != 0
		p.CanDelete = canDelete != 0
		p.Category = category.String
		p.Description = description.String
		p.Thumbnail = thumbnail.String
		p.IsConvertedFromColoredFolder = converted != 0
		p.RepresentativeVideoID = repVideo.String

		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorageFault, err)
	}

	return playlists, nil
}

// marshalJSON serializes v, falling back to an empty JSON value on failure.
// The inputs are plain data types that cannot fail to marshal in practice.
func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func unmarshalRaw(s sql.NullString) json.RawMessage {
	if !s.Valid || s.String == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(s.String)
}

func unmarshalStrings(s sql.NullString) []string {
	out := []string{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &out)
	}
	return out
}

func unmarshalTabs(s sql.NullString) []models.Tab {
	out := []models.Tab{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &out)
	}
	return out
}

func unmarshalProgress(s sql.NullString) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	if s.Valid && s.String != "" {
		_ = json.Unmarshal([]byte(s.String), &out)
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
