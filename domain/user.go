package domain

import "time"

type User struct {
	ID           string
	Username     string
	AvatarURL    string
	PasswordHash string
	CreatedAt    time.Time
}

// UserSummary is the wire-safe projection of a User, as returned by the
// dashboard. Online is derived from the presence registry at read time and
// is never persisted.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Online    bool   `json:"online"`
}

func (u User) Summary(online bool) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		Online:    online,
	}
}
