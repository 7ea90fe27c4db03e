// Package provider holds the data shapes returned by the external submission
// source. Adapters map their wire formats into these types.
package provider

import "time"

// Submission is one proposed talk with its speakers and review metadata.
type Submission struct {
	ID                 string
	Title              string
	Abstract           string
	SubmittedAt        *time.Time
	DeliberationStatus string
	ConfirmationStatus string
	Level              string
	References         string
	Formats            []string
	Categories         []string
	Tags               []string
	Languages          []string
	Speakers           []SpeakerPayload
	Review             *Review
}

// SpeakerPayload is a speaker as embedded in a submission. Only ID is
// guaranteed; every other field may be empty on any given occurrence.
type SpeakerPayload struct {
	ID          string
	Name        string
	Email       string
	Bio         string
	Company     string
	References  string
	Picture     string
	SocialLinks []string
}

// Review aggregates the external review votes.
type Review struct {
	Average   *float64
	Positives int
	Negatives int
}
