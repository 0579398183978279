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

// UserLoad loads a user's full snapshot, provisioning from the template on
// first access.
func (r *Runner) UserLoad(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)
	userID := cmd.String("id")

	snap, err := r.store.LoadTenant(userID)
	if err != nil {
		return err
	}

	if cmd.Bool("summary") {
		return r.writePlain("%s", formatter.SnapshotToText(userID, snap))
	}

	return r.writeJSON(snap, cmd.Bool("pretty"))
}

// UserSave replaces a user's entire snapshot from a JSON file.
func (r *Runner) UserSave(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)
	userID := cmd.String("id")
	filePath := cmd.String("file")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: snapshot file has unexpected shape: %v", shared.ErrValidation, err)
	}

	if err := r.store.Save(userID, &snap); err != nil {
		return err
	}

	return r.writePlainln(formatter.OK("Saved %d playlists for user %s", len(snap.Playlists), userID))
}

// UserList prints every known user id, excluding the template.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)

	users, err := r.store.ListTenants()
	if err != nil {
		return err
	}

	if len(users) == 0 {
		return r.writePlainln(formatter.Warn("No users found"))
	}

	for _, id := range users {
		if err := r.writePlainln("%s", id); err != nil {
			return err
		}
	}
	return nil
}

// ProgressMerge shallow-merges a partial progress map over the stored one.
func (r *Runner) ProgressMerge(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)
	userID := cmd.String("id")
	filePath := cmd.String("file")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read progress file: %w", err)
	}

	var progress map[string]json.RawMessage
	if err := json.Unmarshal(data, &progress); err != nil {
		return fmt.Errorf("%w: progress file must be a JSON object keyed by video id: %v", shared.ErrValidation, err)
	}

	if err := r.impex.MergeWatchProgress(userID, progress); err != nil {
		return err
	}

	return r.writePlainln(formatter.OK("Merged %d progress entries for user %s", len(progress), userID))
}
