package analytics

import (
	"strings"

	"shelfcontrol/backend/models"
)

// FormatUserName picks the best display name: full name, then username, then
// email, then the id.
func FormatUserName(u models.UserInfo) string {
	var parts []string
	if s := deref(u.FirstName); s != "" {
		parts = append(parts, s)
	}
	if s := deref(u.LastName); s != "" {
		parts = append(parts, s)
	}
	if full := strings.TrimSpace(strings.Join(parts, " ")); full != "" {
		return full
	}
	if s := deref(u.Username); s != "" {
		return s
	}
	if s := deref(u.Email); s != "" {
		return s
	}
	return u.ID
}

func fallbackLabel(userID string) string {
	if len(userID) > 8 {
		return "User " + userID[:8]
	}
	return "User " + userID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func colorAt(palette []string, i int) string {
	if len(palette) == 0 {
		return "#3b82f6"
	}
	return palette[i%len(palette)]
}
