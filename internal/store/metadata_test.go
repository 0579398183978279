package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tvkeep/tvkeep/internal/models"
	"github.com/tvkeep/tvkeep/internal/shared"
)

func TestMetadataCache(t *testing.T) {
	t.Run("BatchReturnsOnlyStoredIDs", func(t *testing.T) {
		s := newEmptyStore(t)

		err := s.UpsertMetadataBatch([]models.VideoMetadata{
			{VideoID: "v1", Title: "First", Author: "Chan", ViewCount: 100, Duration: 60},
		})
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		found, err := s.GetMetadataBatch([]string{"v1", "v2"})
		if err != nil {
			t.Fatalf("failed to get batch: %v", err)
		}
		if len(found) != 1 {
			t.Fatalf("expected 1 record, got %d", len(found))
		}
		if found["v1"].Title != "First" {
			t.Errorf("expected title First, got %s", found["v1"].Title)
		}
		if _, ok := found["v2"]; ok {
			t.Error("v2 has no stored record and must be absent")
		}
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		s := newEmptyStore(t)

		if err := s.UpsertMetadata(models.VideoMetadata{VideoID: "v1", Title: "Old", ViewCount: 1}); err != nil {
			t.Fatalf("failed first upsert: %v", err)
		}
		if err := s.UpsertMetadata(models.VideoMetadata{VideoID: "v1", Title: "New", ViewCount: 2, Author: "A"}); err != nil {
			t.Fatalf("failed second upsert: %v", err)
		}

		found, err := s.GetMetadataBatch([]string{"v1"})
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		record := found["v1"]
		if record.Title != "New" || record.ViewCount != 2 || record.Author != "A" {
			t.Errorf("expected refreshed record, got %+v", record)
		}
	})

	t.Run("LargeBatchIsChunked", func(t *testing.T) {
		s := newEmptyStore(t)

		var records []models.VideoMetadata
		for i := 0; i < 25; i++ {
			records = append(records, models.VideoMetadata{
				VideoID: fmt.Sprintf("v%04d", i),
				Title:   fmt.Sprintf("Video %d", i),
			})
		}
		if err := s.UpsertMetadataBatch(records); err != nil {
			t.Fatalf("failed to upsert batch: %v", err)
		}

		// Request far more ids than exist, exceeding the parameter ceiling so
		// the lookup must be split into sub-batches.
		var ids []string
		for i := 0; i < maxQueryParams+500; i++ {
			ids = append(ids, fmt.Sprintf("v%04d", i))
		}

		found, err := s.GetMetadataBatch(ids)
		if err != nil {
			t.Fatalf("chunked get failed: %v", err)
		}
		if len(found) != 25 {
			t.Errorf("expected 25 records, got %d", len(found))
		}
	})

	t.Run("EmptyInputs", func(t *testing.T) {
		s := newEmptyStore(t)

		if err := s.UpsertMetadataBatch(nil); err != nil {
			t.Errorf("empty upsert should succeed: %v", err)
		}

		found, err := s.GetMetadataBatch(nil)
		if err != nil {
			t.Errorf("empty get should succeed: %v", err)
		}
		if len(found) != 0 {
			t.Errorf("expected empty result, got %v", found)
		}
	})

	t.Run("MissingIDRejected", func(t *testing.T) {
		s := newEmptyStore(t)

		if err := s.UpsertMetadata(models.VideoMetadata{Title: "No ID"}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		err := s.UpsertMetadataBatch([]models.VideoMetadata{{VideoID: "ok"}, {Title: "bad"}})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("FetchedAtPreservedOnRefresh", func(t *testing.T) {
		s := newEmptyStore(t)

		if err := s.UpsertMetadata(models.VideoMetadata{VideoID: "v1", Title: "Old"}); err != nil {
			t.Fatalf("failed first upsert: %v", err)
		}
		first, err := s.GetMetadataBatch([]string{"v1"})
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}

		if err := s.UpsertMetadata(models.VideoMetadata{VideoID: "v1", Title: "New"}); err != nil {
			t.Fatalf("failed refresh: %v", err)
		}
		second, err := s.GetMetadataBatch([]string{"v1"})
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}

		if !second["v1"].FetchedAt.Equal(first["v1"].FetchedAt) {
			t.Errorf("fetched_at changed on refresh: %v -> %v", first["v1"].FetchedAt, second["v1"].FetchedAt)
		}
	})
}
