package models

import (
	"strconv"
	"strings"
)

// Rule is an ordered list of dotted key paths ("session.access_token").
//
// When Truthy is set, empty strings, zero numbers and false are skipped as if
// absent; otherwise any non-null value wins.
type Rule struct {
	Paths  []string
	Truthy bool
}

// Extraction rules for backend payloads, in priority order.
var (
	TrackIDRule       = Rule{Paths: []string{"id", "song_id", "_id", "uuid", "filename"}}
	TrackTitleRule    = Rule{Paths: []string{"title", "name", "filename"}}
	TrackArtistRule   = Rule{Paths: []string{"artist", "author"}}
	TrackDurationRule = Rule{Paths: []string{"duration", "length_seconds", "seconds"}}

	TokenRule     = Rule{Paths: []string{"access_token", "token", "session.access_token", "session_token"}, Truthy: true}
	TokenTypeRule = Rule{Paths: []string{"token_type"}, Truthy: true}
	UserRule      = Rule{Paths: []string{"user"}, Truthy: true}
	EmailRule     = Rule{Paths: []string{"email"}, Truthy: true}

	SongListRule = Rule{Paths: []string{"items", "songs"}}
)

const (
	UntitledTrack    = "Untitled"
	DefaultTokenType = "Bearer"
)

// Find returns the first value matched by the rule.
func (r Rule) Find(raw map[string]any) (any, bool) {
	for _, p := range r.Paths {
		v, ok := lookup(raw, p)
		if !ok || v == nil {
			continue
		}
		if r.Truthy && !truthy(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

// String returns the first match rendered as a string.
// Numbers are rendered in decimal; objects and lists never match.
func (r Rule) String(raw map[string]any) (string, bool) {
	v, ok := r.Find(raw)
	if !ok {
		return "", false
	}
	return scalarString(v)
}

// Number returns the first match when it is numeric.
func (r Rule) Number(raw map[string]any) (float64, bool) {
	v, ok := r.Find(raw)
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

func lookup(raw map[string]any, path string) (any, bool) {
	var cur any = raw
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// NormalizeTrack maps a raw server song record onto a [Track].
func NormalizeTrack(raw map[string]any) Track {
	t := Track{Title: UntitledTrack}
	if id, ok := TrackIDRule.String(raw); ok {
		t.ID = id
	}
	if title, ok := TrackTitleRule.String(raw); ok {
		t.Title = title
	}
	if artist, ok := TrackArtistRule.String(raw); ok {
		t.Artist = artist
	}
	if d, ok := TrackDurationRule.Number(raw); ok {
		t.Duration = &d
	}
	return t
}

// NormalizeSongList accepts a bare array, {items:[...]} or {songs:[...]}.
// Any other shape yields an empty list. Non-object entries are skipped.
func NormalizeSongList(payload any) []Track {
	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		if found, ok := SongListRule.Find(v); ok {
			items, _ = found.([]any)
		}
	}

	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		if raw, ok := item.(map[string]any); ok {
			tracks = append(tracks, NormalizeTrack(raw))
		}
	}
	return tracks
}

// AuthResult is the normalized form of a login or register response.
type AuthResult struct {
	Token     string
	TokenType string
	User      *User
	Raw       any
}

// NormalizeAuthResponse extracts the token and user from an auth response.
// A payload that is not a JSON object yields an empty result carrying Raw.
func NormalizeAuthResponse(payload any) AuthResult {
	res := AuthResult{TokenType: DefaultTokenType, Raw: payload}
	raw, ok := payload.(map[string]any)
	if !ok {
		return res
	}

	if tok, ok := TokenRule.String(raw); ok {
		res.Token = tok
	}
	if tt, ok := TokenTypeRule.String(raw); ok {
		res.TokenType = tt
	}

	if v, ok := UserRule.Find(raw); ok {
		if m, ok := v.(map[string]any); ok {
			u := UserFromMap(m)
			res.User = &u
		}
	}
	if res.User == nil {
		if email, ok := EmailRule.String(raw); ok {
			res.User = &User{Email: email}
		}
	}
	return res
}
