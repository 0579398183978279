package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
	"github.com/tvkeep/tvkeep/internal/models"
	"github.com/tvkeep/tvkeep/internal/shared"
)

// SeedLocator finds the seed document by trying an ordered list of candidate
// locations and using the first one that exists. The search order mirrors how
// the application is deployed: working directory during development, then the
// configured resource directory, then the locations installers place bundled
// files in relative to the executable.
type SeedLocator struct {
	fileName    string
	resourceDir string
}

// NewSeedLocator creates a SeedLocator from the resource configuration.
func NewSeedLocator(res shared.ResourcesConfig) *SeedLocator {
	name := res.SeedFile
	if name == "" {
		name = "default-channels.json"
	}
	return &SeedLocator{fileName: name, resourceDir: res.Dir}
}

// Candidates returns every path the locator will try, in search order.
func (l *SeedLocator) Candidates() []string {
	var paths []string

	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, l.fileName))
	}

	if l.resourceDir != "" {
		paths = append(paths, filepath.Join(l.resourceDir, l.fileName))
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, l.fileName),
			filepath.Join(exeDir, "resources", l.fileName),
			filepath.Join(exeDir, "_up_", l.fileName),
		)
	}

	return paths
}

// Locate returns the first candidate path that exists, plus the full list of
// paths searched. A missing document is reported as [shared.ErrResourceMissing].
func (l *SeedLocator) Locate() (string, []string, error) {
	searched := l.Candidates()
	for _, path := range searched {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, searched, nil
		}
	}
	return "", searched, fmt.Errorf("%w: %s", shared.ErrResourceMissing, l.fileName)
}

// ParseSeedDocument parses seed document bytes. Comments and trailing commas
// are tolerated so hand-edited seed files survive.
func ParseSeedDocument(data []byte) (*models.Snapshot, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: seed document is not valid JSON: %v", shared.ErrValidation, err)
	}

	var seed models.Snapshot
	if err := json.Unmarshal(standardized, &seed); err != nil {
		return nil, fmt.Errorf("%w: seed document has unexpected shape: %v", shared.ErrValidation, err)
	}

	seed.Normalize()
	return &seed, nil
}

// ensureTemplate materializes the seed document as the reserved template user,
// once. When template playlists already exist this is a no-op. A missing seed
// document is logged and tolerated; the store then operates with an empty
// template.
func (s *Store) ensureTemplate(db *sql.DB) error {
	var defaults int
	err := db.QueryRow("SELECT COUNT(*) FROM playlists WHERE is_default = 1").Scan(&defaults)
	if err != nil {
		return fmt.Errorf("%w: failed to check template state: %v", shared.ErrStorageFault, err)
	}
	if defaults > 0 {
		return nil
	}

	path, searched, err := s.seeds.Locate()
	if err != nil {
		s.logger.Warn("seed document not found, operating with an empty template",
			"file", s.seeds.fileName, "searched", len(searched))
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: failed to read seed document %s: %v", shared.ErrResourceMissing, path, err)
	}

	seed, err := ParseSeedDocument(data)
	if err != nil {
		return err
	}

	if err := insertTemplate(db, seed); err != nil {
		return err
	}

	s.logger.Info("template initialized from seed document", "path", path, "playlists", len(seed.Playlists))
	return nil
}

// insertTemplate writes the template user and its playlists in one transaction.
// The user insert is OR IGNORE on the reserved id, so a race between two
// first-run processes leaves one winner and no corruption.
func insertTemplate(db *sql.DB, seed *models.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin bootstrap transaction: %v", shared.ErrStorageFault, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR IGNORE INTO users (user_id, custom_colors, color_order, playlist_tabs, video_progress)
		VALUES (?, ?, ?, ?, ?)
	`,
		models.TemplateUserID,
		string(seed.CustomColors),
		marshalJSON(seed.ColorOrder),
		marshalJSON(seed.PlaylistTabs),
		marshalJSON(seed.VideoProgress),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert template user: %v", shared.ErrStorageFault, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO playlists (
			user_id, playlist_id, name, videos, groups, starred, is_default, can_delete,
			category, description, thumbnail, is_converted_from_colored_folder, representative_video_id
		)
		VALUES (?, ?, ?, ?, ?, ?, 1, 0, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare template playlist insert: %v", shared.ErrStorageFault, err)
	}
	defer stmt.Close()

	for _, playlist := range seed.Playlists {
		_, err := stmt.Exec(
			models.TemplateUserID,
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
			return fmt.Errorf("%w: failed to insert template playlist %s: %v", shared.ErrStorageFault, playlist.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit bootstrap transaction: %v", shared.ErrStorageFault, err)
	}

	return nil
}

// TemplateStatus describes the template state for diagnostics.
type TemplateStatus struct {
	TemplatePlaylists  int      `json:"templatePlaylists"`
	TemplateUserExists bool     `json:"templateUserExists"`
	SeedPath           string   `json:"seedPath,omitempty"`
	Searched           []string `json:"searched"`
}

// CheckTemplate reports whether the template is loaded and where the seed
// document was (or would be) found.
func (s *Store) CheckTemplate() (*TemplateStatus, error) {
	status := &TemplateStatus{}

	err := s.withConn(func(db *sql.DB) error {
		if err := db.QueryRow("SELECT COUNT(*) FROM playlists WHERE is_default = 1").Scan(&status.TemplatePlaylists); err != nil {
			return fmt.Errorf("%w: failed to count template playlists: %v", shared.ErrStorageFault, err)
		}
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE user_id = ?)", models.TemplateUserID).Scan(&status.TemplateUserExists)
		if err != nil {
			return fmt.Errorf("%w: failed to check template user: %v", shared.ErrStorageFault, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if path, searched, err := s.seeds.Locate(); err == nil {
		status.SeedPath = path
		status.Searched = searched
	} else {
		status.Searched = s.seeds.Candidates()
	}

	return status, nil
}

// ReseedTemplate deletes the template user and its playlists and re-runs the
// bootstrap. Returns the number of template playlists loaded. Fails with
// [shared.ErrResourceMissing] when no seed document could be found.
func (s *Store) ReseedTemplate() (int, error) {
	var loaded int

	err := s.withConn(func(db *sql.DB) error {
		if _, err := db.Exec("DELETE FROM playlists WHERE is_default = 1"); err != nil {
			return fmt.Errorf("%w: failed to delete template playlists: %v", shared.ErrStorageFault, err)
		}
		if _, err := db.Exec("DELETE FROM users WHERE user_id = ?", models.TemplateUserID); err != nil {
			return fmt.Errorf("%w: failed to delete template user: %v", shared.ErrStorageFault, err)
		}

		if err := s.ensureTemplate(db); err != nil {
			return err
		}

		if err := db.QueryRow("SELECT COUNT(*) FROM playlists WHERE is_default = 1").Scan(&loaded); err != nil {
			return fmt.Errorf("%w: failed to count template playlists: %v", shared.ErrStorageFault, err)
		}

		if loaded == 0 {
			_, searched, _ := s.seeds.Locate()
			return fmt.Errorf("%w: no template playlists loaded, searched %v", shared.ErrResourceMissing, searched)
		}
		return nil
	})

	return loaded, err
}
