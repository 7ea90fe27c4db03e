package conferencehall

import "time"

// apiEvent is the event export returned by the platform.
type apiEvent struct {
	Name      string        `json:"name"`
	Proposals []apiProposal `json:"proposals" validate:"dive"`
}

// apiProposal is one submission. Status fields are null until the
// organizers deliberate.
type apiProposal struct {
	ID                 string       `json:"id"                 validate:"required"`
	Title              string       `json:"title"`
	Abstract           string       `json:"abstract"`
	SubmittedAt        *time.Time   `json:"submittedAt"`
	DeliberationStatus *string      `json:"deliberationStatus"`
	ConfirmationStatus *string      `json:"confirmationStatus"`
	Level              *string      `json:"level"`
	References         *string      `json:"references"`
	Formats            []string     `json:"formats"`
	Categories         []string     `json:"categories"`
	Tags               []string     `json:"tags"`
	Languages          []string     `json:"languages"`
	Speakers           []apiSpeaker `json:"speakers"           validate:"dive"`
	Review             *apiReview   `json:"review"`
}

type apiSpeaker struct {
	ID          string   `json:"id"          validate:"required"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Bio         string   `json:"bio"`
	Company     string   `json:"company"`
	References  string   `json:"references"`
	Picture     string   `json:"picture"`
	SocialLinks []string `json:"socialLinks"`
}

type apiReview struct {
	Average   *float64 `json:"average"`
	Positives int      `json:"positives" validate:"gte=0"`
	Negatives int      `json:"negatives" validate:"gte=0"`
}
