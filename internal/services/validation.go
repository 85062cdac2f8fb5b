package services

import (
	"strings"
	"time"

	"github.com/saeid-a/CoachProgramBack/pkg/utils"
)

func (v *ValidationErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
}

// futureDate parses value and requires it to lie after now. The zero time is
// returned when either check fails.
func (v *ValidationErrors) futureDate(field, value string, now time.Time) time.Time {
	parsed, err := utils.ParseDate(value)
	if err != nil {
		v.add(field, "unparsable date")
		return time.Time{}
	}
	if utils.IsPast(parsed, now) {
		v.add(field, "should be a future date")
		return time.Time{}
	}
	return parsed
}

func (v *ValidationErrors) minDuration(field string, hours int) {
	if hours < 1 {
		v.add(field, "should be a minimum of 1 hour")
	}
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
