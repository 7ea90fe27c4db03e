package domain

import "strings"

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	SessionStatusSubmitted         SessionStatus = "SUBMITTED"
	SessionStatusWaitlisted        SessionStatus = "WAITLISTED"
	SessionStatusAccepted          SessionStatus = "ACCEPTED"
	SessionStatusSpeakerConfirmed  SessionStatus = "SPEAKER_CONFIRMED"
	SessionStatusScheduled         SessionStatus = "SCHEDULED"
	SessionStatusProgrammed        SessionStatus = "PROGRAMMED"
	SessionStatusDeclinedBySpeaker SessionStatus = "DECLINED_BY_SPEAKER"
	SessionStatusCancelled         SessionStatus = "CANCELLED"
	SessionStatusRejected          SessionStatus = "REJECTED"
)

func (s SessionStatus) String() string { return string(s) }

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusSubmitted, SessionStatusWaitlisted, SessionStatusAccepted,
		SessionStatusSpeakerConfirmed, SessionStatusScheduled, SessionStatusProgrammed,
		SessionStatusDeclinedBySpeaker, SessionStatusCancelled, SessionStatusRejected:
		return true
	}
	return false
}

// isPlaced reports whether the session already holds a slot in the program.
func (s SessionStatus) isPlaced() bool {
	return s == SessionStatusScheduled || s == SessionStatusProgrammed
}

// Deliberation statuses reported by the submission platform.
const (
	DeliberationRejected = "REJECTED"
	DeliberationPending  = "PENDING"
	DeliberationAccepted = "ACCEPTED"
)

// Confirmation statuses reported by the submission platform.
const (
	ConfirmationConfirmed = "CONFIRMED"
	ConfirmationDeclined  = "DECLINED"
)

// NextSessionStatus merges the externally reported deliberation and
// confirmation state with the locally held status. current is "" for a
// session that does not exist yet. Unknown deliberation values fall back to
// SUBMITTED.
//
// A CANCELLED session stays CANCELLED while the speaker's decline stands, so
// feeding the result back in as current always yields the same status.
func NextSessionStatus(deliberation, confirmation string, current SessionStatus) SessionStatus {
	switch strings.ToUpper(deliberation) {
	case DeliberationRejected:
		return SessionStatusRejected
	case DeliberationPending:
		if current == SessionStatusWaitlisted {
			return SessionStatusWaitlisted
		}
		return SessionStatusSubmitted
	case DeliberationAccepted:
		switch strings.ToUpper(confirmation) {
		case ConfirmationDeclined:
			if current == SessionStatusProgrammed || current == SessionStatusCancelled {
				return SessionStatusCancelled
			}
			return SessionStatusDeclinedBySpeaker
		case ConfirmationConfirmed:
			if current.isPlaced() {
				return SessionStatusProgrammed
			}
			return SessionStatusSpeakerConfirmed
		default:
			if current.isPlaced() {
				return SessionStatusScheduled
			}
			return SessionStatusAccepted
		}
	default:
		return SessionStatusSubmitted
	}
}
