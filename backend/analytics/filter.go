package analytics

import (
	"strings"

	"shelfcontrol/backend/models"
)

// SearchUsers implements the single-user picker: a user matches when the
// lower-cased search text is contained in the formatted name or the email.
// An empty search matches nobody, and excludeID (the current selection) is
// never returned.
func SearchUsers(users []models.UserInfo, search, excludeID string) []models.UserInfo {
	matches := make([]models.UserInfo, 0)
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return matches
	}

	for _, u := range users {
		if u.ID == excludeID {
			continue
		}
		name := strings.ToLower(FormatUserName(u))
		email := strings.ToLower(deref(u.Email))
		if strings.Contains(name, needle) || strings.Contains(email, needle) {
			matches = append(matches, u)
		}
	}
	return matches
}

// FilterDatasets keeps the datasets whose label is selected, preserving order.
func FilterDatasets(datasets []Dataset, selected []string) []Dataset {
	keep := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		keep[s] = struct{}{}
	}

	out := make([]Dataset, 0, len(datasets))
	for _, d := range datasets {
		if _, ok := keep[d.Label]; ok {
			out = append(out, d)
		}
	}
	return out
}
