// package formatter renders snapshots, tab documents and metadata records for CLI output (plain text, Markdown, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/tvkeep/tvkeep/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
)

// Header renders a styled section header for CLI output.
func Header(text string) string {
	return headerStyle.Render(text)
}

// OK renders a styled success line.
func OK(format string, args ...any) string {
	return okStyle.Render(fmt.Sprintf(format, args...))
}

// Warn renders a styled warning line.
func Warn(format string, args ...any) string {
	return warnStyle.Render(fmt.Sprintf(format, args...))
}

// SnapshotToText renders a user snapshot as plain text.
func SnapshotToText(userID string, snap *models.Snapshot) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s\n", userID))
	buf.WriteString(fmt.Sprintf("Playlists: %d\n", len(snap.Playlists)))
	buf.WriteString(fmt.Sprintf("Tabs: %d\n", len(snap.PlaylistTabs)))
	buf.WriteString(fmt.Sprintf("Tracked videos: %d\n\n", len(snap.VideoProgress)))

	for i, playlist := range snap.Playlists {
		flags := ""
		if playlist.IsDefault {
			flags = " [default]"
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s) - %d videos%s\n", i+1, playlist.Name, playlist.ID, len(playlist.Videos), flags))
	}

	if len(snap.PlaylistTabs) > 0 {
		buf.WriteString("\nTabs:\n")
		for i, tab := range snap.PlaylistTabs {
			buf.WriteString(fmt.Sprintf("%d. %s (%d playlists)\n", i+1, tab.Name, len(tab.PlaylistIDs)))
		}
	}

	return buf.Bytes()
}

// TabToMarkdown renders a tab export document as Markdown.
func TabToMarkdown(doc *models.TabExport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", doc.Tab.Name))
	buf.WriteString(fmt.Sprintf("**Playlists**: %d\n\n", len(doc.Playlists)))

	for i, playlist := range doc.Playlists {
		descPart := ""
		if playlist.Description != "" {
			descPart = fmt.Sprintf(" - %s", playlist.Description)
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%d videos)%s\n", i+1, playlist.Name, len(playlist.Videos), descPart))
	}

	return buf.Bytes()
}

// MetadataToCSV converts metadata records to CSV with columns: VideoID, Title, Author, ViewCount, ChannelID, PublishedYear, Duration
func MetadataToCSV(records []models.VideoMetadata) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"VideoID", "Title", "Author", "ViewCount", "ChannelID", "PublishedYear", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.VideoID,
			record.Title,
			record.Author,
			strconv.FormatInt(record.ViewCount, 10),
			record.ChannelID,
			strconv.Itoa(record.PublishedYear),
			strconv.Itoa(record.Duration),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
