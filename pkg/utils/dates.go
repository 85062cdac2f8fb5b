package utils

import (
	"errors"
	"strings"
	"time"
)

// NaiveDateLayout is the zone-less layout accepted from clients; values are
// read as UTC.
const NaiveDateLayout = "2006-01-02T15:04:05"

var ErrUnparsableDate = errors.New("unparsable date")

func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, ErrUnparsableDate
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.ParseInLocation(NaiveDateLayout, trimmed, time.UTC)
	if err != nil {
		return time.Time{}, ErrUnparsableDate
	}
	return parsed, nil
}

func IsValidDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// IsPast reports whether t is strictly before now.
func IsPast(t time.Time, now time.Time) bool {
	return t.Before(now)
}

// EffectiveDate returns the revised value when present, else the original.
func EffectiveDate(original time.Time, revised *time.Time) time.Time {
	if revised != nil {
		return *revised
	}
	return original
}

// EndAfterHours adds a duration expressed in whole hours.
func EndAfterHours(start time.Time, hours int) time.Time {
	return start.Add(time.Duration(hours) * time.Hour)
}
