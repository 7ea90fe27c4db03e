package domain

import (
	"slices"
	"time"
)

// MaxSessionSpeakers is the number of speaker slots on a Session.
// The first slot is the primary speaker.
const MaxSessionSpeakers = 3

// SpeakerSlots is the ordered, fixed-size list of speaker Person ids.
// Empty slots hold "".
type SpeakerSlots [MaxSessionSpeakers]string

// IDs returns the non-empty slots in order.
func (s SpeakerSlots) IDs() []string {
	ids := make([]string, 0, MaxSessionSpeakers)
	for _, id := range s {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// FillSpeakerSlots places ids into slots in order. Ids beyond
// MaxSessionSpeakers are dropped; dropped reports how many.
func FillSpeakerSlots(ids []string) (slots SpeakerSlots, dropped int) {
	for i, id := range ids {
		if i >= MaxSessionSpeakers {
			return slots, len(ids) - MaxSessionSpeakers
		}
		slots[i] = id
	}
	return slots, 0
}

// Session is a submitted or scheduled talk.
type Session struct {
	ID             string
	Title          string
	Abstract       string
	References     string
	SessionType    string
	Speakers       SpeakerSlots
	LastChangeDate time.Time
	Search         string
	Conference     SessionConference
	// Schedule is maintained by organizers, never by the importer.
	Schedule *SessionSchedule
}

// SessionConference is the conference-specific part of a Session.
type SessionConference struct {
	ConferenceID  string         `json:"conferenceId"`
	Status        SessionStatus  `json:"status"`
	ExternalID    string         `json:"externalId"`
	SessionTypeID string         `json:"sessionTypeId,omitempty"`
	TrackID       string         `json:"trackId,omitempty"`
	SubmittedAt   *time.Time     `json:"submittedAt,omitempty"`
	Level         string         `json:"level,omitempty"`
	Languages     []string       `json:"languages,omitempty"`
	Review        *SessionReview `json:"review,omitempty"`
}

// SessionReview aggregates the external review votes.
type SessionReview struct {
	Average *float64 `json:"average,omitempty"`
	Votes   int      `json:"votes"`
}

// SessionSchedule places a session in the program.
type SessionSchedule struct {
	RoomID   string    `json:"roomId,omitempty"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Conference.Languages = slices.Clone(s.Conference.Languages)
	if s.Conference.SubmittedAt != nil {
		t := *s.Conference.SubmittedAt
		c.Conference.SubmittedAt = &t
	}
	if s.Conference.Review != nil {
		r := *s.Conference.Review
		if s.Conference.Review.Average != nil {
			avg := *s.Conference.Review.Average
			r.Average = &avg
		}
		c.Conference.Review = &r
	}
	if s.Schedule != nil {
		sch := *s.Schedule
		c.Schedule = &sch
	}
	return &c
}

// SessionSearchText is the lowercase concatenation of the searchable
// session content and its speakers' names.
func SessionSearchText(title, abstract, references string, categories, tags, speakerNames []string) string {
	parts := []string{title, abstract, references}
	parts = append(parts, categories...)
	parts = append(parts, tags...)
	parts = append(parts, speakerNames...)
	return joinSearch(parts)
}
