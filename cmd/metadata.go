package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tvkeep/tvkeep/internal/formatter"
	"github.com/tvkeep/tvkeep/internal/models"
	"github.com/tvkeep/tvkeep/internal/shared"
	"github.com/urfave/cli/v3"
)

// MetaSet stores metadata records from a JSON file holding either a single
// record object or an array of records.
func (r *Runner) MetaSet(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)
	filePath := cmd.String("file")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read metadata file: %w", err)
	}

	records, err := parseMetadataPayload(data)
	if err != nil {
		return err
	}

	if len(records) == 1 {
		if err := r.store.UpsertMetadata(records[0]); err != nil {
			return err
		}
	} else {
		if err := r.store.UpsertMetadataBatch(records); err != nil {
			return err
		}
	}

	return r.writePlainln(formatter.OK("Stored %d metadata records", len(records)))
}

// MetaGet fetches metadata for the given video ids. Ids without a stored
// record are absent from the output.
func (r *Runner) MetaGet(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one video id is required", shared.ErrMissingArgument)
	}

	found, err := r.store.GetMetadataBatch(ids)
	if err != nil {
		return err
	}

	if cmd.Bool("csv") {
		records := make([]models.VideoMetadata, 0, len(found))
		for _, id := range ids {
			if record, ok := found[id]; ok {
				records = append(records, record)
			}
		}
		output, err := formatter.MetadataToCSV(records)
		if err != nil {
			return err
		}
		return r.writePlain("%s", output)
	}

	return r.writeJSON(found, cmd.Bool("pretty"))
}

// parseMetadataPayload accepts a single record object or an array of records.
func parseMetadataPayload(data []byte) ([]models.VideoMetadata, error) {
	var records []models.VideoMetadata
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var single models.VideoMetadata
	if err := json.Unmarshal(data, &single); err == nil && single.VideoID != "" {
		return []models.VideoMetadata{single}, nil
	}

	return nil, fmt.Errorf("%w: metadata file is neither a record nor an array of records", shared.ErrValidation)
}
