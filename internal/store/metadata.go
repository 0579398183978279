package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tvkeep/tvkeep/internal/models"
	"github.com/tvkeep/tvkeep/internal/shared"
)

// maxQueryParams is SQLite's default bound-parameter ceiling. Batch reads are
// chunked below it so query construction never fails on large id lists.
const maxQueryParams = 999

const upsertMetadataQuery = `
	INSERT INTO video_metadata (
		video_id, title, author, view_count, channel_id, published_year, duration, fetched_at, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'), strftime('%s', 'now'))
	ON CONFLICT(video_id) DO UPDATE SET
		title = excluded.title,
		author = excluded.author,
		view_count = excluded.view_count,
		channel_id = excluded.channel_id,
		published_year = excluded.published_year,
		duration = excluded.duration,
		updated_at = strftime('%s', 'now')
`

// UpsertMetadata stores or refreshes one metadata record, last-write-wins per
// field. fetched_at is set on first insert and preserved on refresh; records
// are never deleted by normal operation.
func (s *Store) UpsertMetadata(record models.VideoMetadata) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	return s.withConn(func(db *sql.DB) error {
		_, err := db.Exec(upsertMetadataQuery,
			record.VideoID, record.Title, record.Author, record.ViewCount,
			record.ChannelID, record.PublishedYear, record.Duration,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to upsert metadata for %s: %v", shared.ErrStorageFault, record.VideoID, err)
		}
		return nil
	})
}

// UpsertMetadataBatch stores or refreshes many records in one transaction.
func (s *Store) UpsertMetadataBatch(records []models.VideoMetadata) error {
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
	}

	return s.withConn(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("%w: failed to begin metadata transaction: %v", shared.ErrStorageFault, err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(upsertMetadataQuery)
		if err != nil {
			return fmt.Errorf("%w: failed to prepare metadata upsert: %v", shared.ErrStorageFault, err)
		}
		defer stmt.Close()

		for _, record := range records {
			_, err := stmt.Exec(
				record.VideoID, record.Title, record.Author, record.ViewCount,
				record.ChannelID, record.PublishedYear, record.Duration,
			)
			if err != nil {
				return fmt.Errorf("%w: failed to upsert metadata for %s: %v", shared.ErrStorageFault, record.VideoID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: failed to commit metadata transaction: %v", shared.ErrStorageFault, err)
		}

		s.logger.Debug("upserted metadata batch", "records", len(records))
		return nil
	})
}

// GetMetadataBatch returns stored records for the given video ids. Ids with no
// stored record are simply absent from the result, not an error. The input may
// be arbitrarily large; lookups are partitioned into sub-batches below the
// parameter ceiling.
func (s *Store) GetMetadataBatch(ids []string) (map[string]models.VideoMetadata, error) {
	found := map[string]models.VideoMetadata{}
	if len(ids) == 0 {
		return found, nil
	}

	err := s.withConn(func(db *sql.DB) error {
		for start := 0; start < len(ids); start += maxQueryParams {
			end := start + maxQueryParams
			if end > len(ids) {
				end = len(ids)
			}
			if err := readMetadataChunk(db, ids[start:end], found); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

func readMetadataChunk(db *sql.DB, ids []string, into map[string]models.VideoMetadata) error {
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.Query(fmt.Sprintf(`
		SELECT video_id, title, author, view_count, channel_id, published_year, duration, fetched_at, updated_at
		FROM video_metadata WHERE video_id IN (%s)
	`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("%w: failed to query metadata: %v", shared.ErrStorageFault, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			record    models.VideoMetadata
			title     sql.NullString
			author    sql.NullString
			channelID sql.NullString
			fetchedAt int64
			updatedAt int64
		)

		err := rows.Scan(&record.VideoID, &title, &author, &record.ViewCount,
			&channelID, &record.PublishedYear, &record.Duration, &fetchedAt, &updatedAt)
		if err != nil {
			return fmt.Errorf("%w: failed to scan metadata row: %v", shared.ErrStorageFault, err)
		}

		record.Title = title.String
		record.Author = author.String
		record.ChannelID = channelID.String
		record.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		record.UpdatedAt = time.Unix(updatedAt, 0).UTC()

		into[record.VideoID] = record
	}

	return rows.Err()
}
