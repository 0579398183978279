// Package models defines the data model for the tvkeep persistence layer.
//
// The package contains two categories of types:
//
// 1. Tenant-scoped state: one user's complete slice of the store
//   - [Snapshot] : a user's playlists, tabs, color preferences and watch progress
//   - [Playlist] : a named, ordered list of video ids with flexible grouping data
//   - [Tab] : a named, ordered grouping of playlist-id references
//
// 2. Global state and exchange documents:
//   - [VideoMetadata] : per-video descriptive metadata cached independently of any user
//   - [TabExport] : one tab plus the playlists it references, as written to disk
//
// Flexible fields (custom colors, playlist groups) are carried as
// [encoding/json.RawMessage] so arbitrary shapes survive a round trip through the
// store unchanged. Watch progress is a map of video id to an opaque progress
// value, which allows shallow merging without interpreting the values.
package models
