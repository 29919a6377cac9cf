package models

import (
	"encoding/json"
	"time"
)

// User is the account a session belongs to.
//
// Email is the only field the client relies on; everything else the server
// sent is kept in Extra so it survives a persist/load round trip.
type User struct {
	Email string         `json:"email,omitempty"`
	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens Extra next to Email.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+1)
	for k, v := range u.Extra {
		out[k] = v
	}
	if u.Email != "" {
		out["email"] = u.Email
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads email and keeps every other key in Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = UserFromMap(raw)
	return nil
}

// UserFromMap builds a [User] from a decoded JSON object.
func UserFromMap(raw map[string]any) User {
	u := User{}
	for k, v := range raw {
		if k == "email" {
			if s, ok := v.(string); ok {
				u.Email = s
				continue
			}
		}
		if u.Extra == nil {
			u.Extra = make(map[string]any)
		}
		u.Extra[k] = v
	}
	return u
}

// Session is the client-held authentication state.
//
// An empty Token means not authenticated. Initializing is true until the
// persisted session has been read.
type Session struct {
	Token        string `json:"token"`
	User         *User  `json:"user,omitempty"`
	Initializing bool   `json:"-"`
}

// Authenticated reports whether the session holds a token.
func (s Session) Authenticated() bool { return s.Token != "" }

// Track is a normalized, playable song.
type Track struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Artist    string   `json:"artist,omitempty"`
	Duration  *float64 `json:"duration,omitempty"` // seconds
	StreamURL string   `json:"stream_url,omitempty"`
}

// Playable reports whether the track carries an id the stream endpoint can address.
func (t Track) Playable() bool { return t.ID != "" }

// PlayerState is the current track and whether it is playing.
type PlayerState struct {
	CurrentTrack *Track
	IsPlaying    bool
}

// NotificationKind classifies a [Notification].
type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindError   NotificationKind = "error"
	KindInfo    NotificationKind = "info"
)

// DefaultNotificationTitle is used when a notification is pushed without a title.
const DefaultNotificationTitle = "Notice"

// Notification is a transient user-facing status message.
type Notification struct {
	ID        string
	Kind      NotificationKind
	Title     string
	Message   string
	TTL       time.Duration // zero uses the bus default
	ExpiresAt time.Time
}

// WithDefaults fills in the kind and title when they are missing.
func (n Notification) WithDefaults() Notification {
	if n.Kind == "" {
		n.Kind = KindInfo
	}
	if n.Title == "" {
		n.Title = DefaultNotificationTitle
	}
	return n
}
