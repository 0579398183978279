package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TemplateUserID is the reserved identity owning the seed playlists. New users
// are provisioned by cloning its rows; it is never listed as a normal user.
const TemplateUserID = "default"

// Snapshot is one user's complete persisted state. Saves replace the whole
// playlist set; watch progress is the only field that is ever shallow-merged.
type Snapshot struct {
	Playlists     []Playlist                 `json:"playlists"`
	PlaylistTabs  []Tab                      `json:"playlistTabs"`
	CustomColors  json.RawMessage            `json:"customColors,omitempty"`
	ColorOrder    []string                   `json:"colorOrder"`
	VideoProgress map[string]json.RawMessage `json:"videoProgress,omitempty"`
}

// EmptySnapshot returns the defaults handed out when no template exists yet.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Playlists:     []Playlist{},
		PlaylistTabs:  []Tab{},
		CustomColors:  json.RawMessage("{}"),
		ColorOrder:    []string{},
		VideoProgress: map[string]json.RawMessage{},
	}
}

// Normalize fills nil collection fields with their empty equivalents so the
// snapshot serializes to the canonical wire shape.
func (s *Snapshot) Normalize() {
	if s.Playlists == nil {
		s.Playlists = []Playlist{}
	}
	for i := range s.Playlists {
		s.Playlists[i].Normalize()
	}
	if s.PlaylistTabs == nil {
		s.PlaylistTabs = []Tab{}
	}
	for i := range s.PlaylistTabs {
		if s.PlaylistTabs[i].PlaylistIDs == nil {
			s.PlaylistTabs[i].PlaylistIDs = []string{}
		}
	}
	if len(s.CustomColors) == 0 {
		s.CustomColors = json.RawMessage("{}")
	}
	if s.ColorOrder == nil {
		s.ColorOrder = []string{}
	}
	if s.VideoProgress == nil {
		s.VideoProgress = map[string]json.RawMessage{}
	}
}

// Playlist is a named, ordered collection of video ids. The id is unique per
// user, not globally; template-owned copies carry IsDefault=true and
// CanDelete=false, user-owned copies the inverse.
type Playlist struct {
	ID                           string          `json:"id"`
	Name                         string          `json:"name"`
	Videos                       []string        `json:"videos"`
	Groups                       json.RawMessage `json:"groups,omitempty"`
	Starred                      []string        `json:"starred"`
	IsDefault                    bool            `json:"isDefault,omitempty"`
	CanDelete                    bool            `json:"canDelete,omitempty"`
	Category                     string          `json:"category,omitempty"`
	Description                  string          `json:"description,omitempty"`
	Thumbnail                    string          `json:"thumbnail,omitempty"`
	IsConvertedFromColoredFolder bool            `json:"isConvertedFromColoredFolder,omitempty"`
	RepresentativeVideoID        string          `json:"representativeVideoId,omitempty"`
}

// Normalize fills nil collection fields with their empty equivalents.
func (p *Playlist) Normalize() {
	if p.Videos == nil {
		p.Videos = []string{}
	}
	if p.Starred == nil {
		p.Starred = []string{}
	}
	if len(p.Groups) == 0 {
		p.Groups = json.RawMessage("{}")
	}
}

// Validate checks that the playlist carries the fields the store requires.
func (p *Playlist) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("playlist name is required (id %s)", p.ID)
	}
	return nil
}

// Tab is a named, ordered grouping of playlist-id references.
type Tab struct {
	Name        string   `json:"name"`
	PlaylistIDs []string `json:"playlistIds"`
}

// TabExport is the document produced by a tab export and consumed by a tab
// import: one tab descriptor plus the playlists its id list references.
type TabExport struct {
	Tab       Tab        `json:"tab"`
	Playlists []Playlist `json:"playlists"`
}

// VideoMetadata is descriptive metadata for one video, keyed globally by video
// id with no user scoping. Records are refreshed in place and never deleted.
type VideoMetadata struct {
	VideoID       string    `json:"videoId"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ViewCount     int64     `json:"viewCount"`
	ChannelID     string    `json:"channelId"`
	PublishedYear int       `json:"publishedYear"`
	Duration      int       `json:"duration"`
	FetchedAt     time.Time `json:"fetchedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate checks that the metadata record carries its key.
func (m *VideoMetadata) Validate() error {
	if m.VideoID == "" {
		return fmt.Errorf("video id is required")
	}
	return nil
}
