// Package model defines the data structures shared across the application.
package model

import "time"

// SpotifyKind distinguishes a single track from a playlist container.
type SpotifyKind string

const (
	SpotifyTrack    SpotifyKind = "track"
	SpotifyPlaylist SpotifyKind = "playlist"
)

// SpotifyRef is the canonical {id, kind} reference for an embedded player.
type SpotifyRef struct {
	ID   string      `json:"id"`
	Kind SpotifyKind `json:"kind"`
}

// EmbedURL returns the open.spotify.com embed address for this reference.
func (r SpotifyRef) EmbedURL() string {
	return "https://open.spotify.com/embed/" + string(r.Kind) + "/" + r.ID
}

// Memory is a single user-authored multimedia post, the primary content
// entity. Content holds the serialized document tree (see internal/document);
// it must always be a value the document model can parse — an unparseable
// value is a data-integrity error, not a silent default.
//
// MemoryDate is the date of the remembered event, distinct from CreatedAt
// (when the record was written). PasswordHash is never serialized to JSON.
type Memory struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	CreatorNames     string      `json:"creatorNames,omitempty"`
	ShortDescription string      `json:"shortDescription,omitempty"`
	Content          string      `json:"content"`
	ThumbnailURL     string      `json:"thumbnailUrl,omitempty"`
	MediaKeys        []string    `json:"mediaKeys,omitempty"`
	Spotify          *SpotifyRef `json:"spotify,omitempty"`
	PasswordHash     string      `json:"-"`
	MemoryDate       *time.Time  `json:"memoryDate,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// IsProtected reports whether this memory is gated behind a password.
func (m *Memory) IsProtected() bool {
	return m.PasswordHash != ""
}

// PlaceholderThumbnail is shown for memories without a thumbnail of their own.
const PlaceholderThumbnail = "https://images.unsplash.com/photo-1505681425200-32e192a7a6e4?w=600&h=400&crop=center&auto=format"

// ThumbnailOrPlaceholder returns the memory's thumbnail, or the shared
// placeholder when none was set.
func (m *Memory) ThumbnailOrPlaceholder() string {
	if m.ThumbnailURL != "" {
		return m.ThumbnailURL
	}
	return PlaceholderThumbnail
}
