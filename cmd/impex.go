package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tvkeep/tvkeep/internal/formatter"
	"github.com/tvkeep/tvkeep/internal/services"
	"github.com/urfave/cli/v3"
)

// PlaylistImport performs an add-only import from a playlist file.
func (r *Runner) PlaylistImport(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)
	userID := cmd.String("id")
	filePath := cmd.String("file")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	result, err := r.impex.ImportPlaylists(userID, data)
	if err != nil {
		return err
	}

	return r.writePlainln(formatter.OK("Imported playlists for %s: %d added, %d skipped", userID, result.Added, result.Skipped))
}

// PlaylistOverwrite replaces one playlist's content in place.
func (r *Runner) PlaylistOverwrite(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)
	userID := cmd.String("id")
	playlistID := cmd.String("playlist")
	filePath := cmd.String("file")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read replacement file: %w", err)
	}

	if err := r.impex.OverwritePlaylist(userID, playlistID, data); err != nil {
		return err
	}

	return r.writePlainln(formatter.OK("Overwrote playlist %s for user %s", playlistID, userID))
}

// TabExport exports one tab and its playlists to stdout or a file.
func (r *Runner) TabExport(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)
	userID := cmd.String("id")
	index := cmd.Int("index")
	outputPath := cmd.String("output")

	doc, err := r.impex.ExportTab(userID, int(index))
	if err != nil {
		return err
	}

	if cmd.Bool("markdown") {
		return r.writePlain("%s", formatter.TabToMarkdown(doc))
	}

	if outputPath == "" {
		return r.writeJSON(doc, true)
	}

	if err := services.WriteDocument(outputPath, doc); err != nil {
		return err
	}

	return r.writePlainln(formatter.OK("Exported tab %q (%d playlists) to %s", doc.Tab.Name, len(doc.Playlists), outputPath))
}

// TabImport imports a tab document: upserts its playlists, appends its tab.
func (r *Runner) TabImport(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)
	userID := cmd.String("id")
	filePath := cmd.String("file")

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read tab file: %w", err)
	}

	result, err := r.impex.ImportTab(userID, data)
	if err != nil {
		return err
	}

	return r.writePlainln(formatter.OK("Imported tab %q for %s: %d playlists added, %d updated",
		result.TabName, userID, result.PlaylistsAdded, result.PlaylistsUpdated))
}

// TemplateCheck reports template state and the seed search paths.
func (r *Runner) TemplateCheck(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)

	status, err := r.store.CheckTemplate()
	if err != nil {
		return err
	}

	return r.writeJSON(status, true)
}

// TemplateReseed deletes the template and reloads it from the seed document.
func (r *Runner) TemplateReseed(ctx context.Context, cmd *cli.Command) error {
	r.configure(cmd)

	loaded, err := r.store.ReseedTemplate()
	if err != nil {
		return err
	}

	return r.writePlainln(formatter.OK("Reseeded template: %d playlists loaded", loaded))
}
