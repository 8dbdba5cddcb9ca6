package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ParseUserIDs reads the comma separated user_ids query parameter. An absent
// or empty parameter means "all users" and yields nil.
func ParseUserIDs(c *fiber.Ctx) ([]string, error) {
	raw := strings.TrimSpace(c.Query("user_ids"))
	if raw == "" {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		s := id.String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		ids = append(ids, s)
	}
	return ids, nil
}

// ParseIntQuery reads a positive integer query parameter bounded by max.
func ParseIntQuery(c *fiber.Ctx, key string, def, max int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

// ParseLocation resolves the caller's local time zone. tz_offset follows the
// browser's getTimezoneOffset sign (minutes behind UTC, so UTC-5 is 300);
// tz is an IANA zone name. Without either the zone is UTC.
func ParseLocation(c *fiber.Ctx) (*time.Location, error) {
	if raw := c.Query("tz_offset"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < -14*60 || minutes > 14*60 {
			return nil, fmt.Errorf("invalid tz_offset %q", raw)
		}
		return OffsetLocation(minutes), nil
	}

	if name := c.Query("tz"); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("invalid tz %q", name)
		}
		return loc, nil
	}

	return time.UTC, nil
}

// OffsetLocation converts a getTimezoneOffset value into a fixed zone.
func OffsetLocation(offsetMinutes int) *time.Location {
	if offsetMinutes == 0 {
		return time.UTC
	}
	seconds := -offsetMinutes * 60
	sign := "+"
	abs := -offsetMinutes
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/60, abs%60), seconds)
}
