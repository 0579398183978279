// Package services implements the merge-policy workflows layered on top of the
// store: add-only playlist import, overwrite-by-id, tab export/import, and
// watch-progress merging.
//
// The service never touches the storage engine directly; it composes
// [Storage.LoadTenant] and [Storage.Save] so every workflow inherits the
// store's atomicity and ordering guarantees. Import payloads are accepted in
// three shapes, tried in order: a single playlist object, an object with a
// "playlists" array, or a bare array of playlist objects. Payloads are parsed
// leniently, so files with comments or trailing commas import cleanly.
package services
