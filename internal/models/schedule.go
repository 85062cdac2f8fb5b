package models

import (
	"time"

	"github.com/saeid-a/CoachProgramBack/pkg/utils"
)

// Schedule is the planning triple shared by tasks, sessions and objectives.
// Revised dates override the original plan; offered dates are a pending
// counter-proposal and never affect status.
type Schedule struct {
	OriginalStart time.Time  `json:"original_start_date"`
	OriginalEnd   time.Time  `json:"original_end_date"`
	RevisedStart  *time.Time `json:"revised_start_date,omitempty"`
	RevisedEnd    *time.Time `json:"revised_end_date,omitempty"`
	OfferedStart  *time.Time `json:"offered_start_date,omitempty"`
	OfferedEnd    *time.Time `json:"offered_end_date,omitempty"`
}

func (s Schedule) EffectiveStart() time.Time {
	return utils.EffectiveDate(s.OriginalStart, s.RevisedStart)
}

func (s Schedule) EffectiveEnd() time.Time {
	return utils.EffectiveDate(s.OriginalEnd, s.RevisedEnd)
}
