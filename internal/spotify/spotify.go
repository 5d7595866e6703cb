// Package spotify resolves pasted links or bare identifiers into a canonical
// track/playlist reference for the embedded player.
package spotify

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/mkaye/memorybox/internal/model"
)

// ErrInvalidReference is returned for input that resolves to neither a track
// nor a playlist. Callers surface it as a visible "invalid reference" state,
// never a broken embed.
var ErrInvalidReference = errors.New("spotify: not a recognizable track or playlist reference")

// Spotify IDs are 22 base62 characters.
var bareID = regexp.MustCompile(`^[a-zA-Z0-9]{22}$`)

// Localized URL paths insert a segment like /intl-pt/ or /intl-pt-BR/ before
// the resource type.
var intlSegment = regexp.MustCompile(`^intl-[a-z]{2}(-[A-Za-z]{2})?$`)

// Resolve extracts a canonical {id, kind} reference from a Spotify URL or a
// bare identifier.
//
// Accepted shapes:
//
//	https://open.spotify.com/track/{id}
//	https://open.spotify.com/playlist/{id}?si=...
//	https://open.spotify.com/intl-pt/track/{id}
//	https://open.spotify.com/embed/playlist/{id}
//	{id}                                      (22 base62 chars)
//
// A bare ID carries no kind information; it defaults to playlist, which is
// the primary thing people share into a memory box. Pass a full URL to embed
// a single track.
func Resolve(input string) (*model.SpotifyRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrInvalidReference
	}

	if bareID.MatchString(input) {
		return &model.SpotifyRef{ID: input, Kind: model.SpotifyPlaylist}, nil
	}

	u, err := url.Parse(input)
	if err != nil || !strings.HasSuffix(u.Hostname(), "spotify.com") {
		return nil, ErrInvalidReference
	}

	segments := splitPath(u.Path)
	for i := 0; i < len(segments)-1; i++ {
		seg := segments[i]
		if seg == "embed" || intlSegment.MatchString(seg) {
			continue
		}

		var kind model.SpotifyKind
		switch seg {
		case "track":
			kind = model.SpotifyTrack
		case "playlist":
			kind = model.SpotifyPlaylist
		default:
			return nil, ErrInvalidReference
		}

		id := segments[i+1]
		if !bareID.MatchString(id) {
			return nil, ErrInvalidReference
		}
		return &model.SpotifyRef{ID: id, Kind: kind}, nil
	}

	return nil, ErrInvalidReference
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
