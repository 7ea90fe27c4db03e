package domain

import (
	"slices"
	"strings"
	"time"
)

// Person is a speaker or organizer record. Email is the identity key: the
// email index guarantees at most one Person per NormalizeEmail(Email).
type Person struct {
	ID                string
	Email             string
	FirstName         string
	LastName          string
	HasAccount        bool
	IsPlatformAdmin   bool
	IsSpeaker         bool
	PreferredLanguage string
	Search            string
	Speaker           *SpeakerProfile
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SpeakerProfile holds the data imported from the submission platform.
type SpeakerProfile struct {
	ExternalID    string       `json:"externalId,omitempty"`
	Bio           string       `json:"bio,omitempty"`
	Company       string       `json:"company,omitempty"`
	References    string       `json:"references,omitempty"`
	PhotoURL      string       `json:"photoUrl,omitempty"`
	SocialLinks   []SocialLink `json:"socialLinks,omitempty"`
	ConferenceIDs []string     `json:"conferenceIds,omitempty"`
}

// SocialLink is a classified profile URL.
type SocialLink struct {
	Network string `json:"network"`
	URL     string `json:"url"`
}

// Social network labels produced by ClassifySocialLink.
const (
	SocialLinkedIn = "LinkedIn"
	SocialGitHub   = "GitHub"
	SocialX        = "X"
	SocialBluesky  = "Bluesky"
	SocialMastodon = "Mastodon"
	SocialWebsite  = "Website"
)

// ClassifySocialLink maps a profile URL to a network label by substring match.
func ClassifySocialLink(url string) string {
	u := strings.ToLower(url)
	switch {
	case strings.Contains(u, "linkedin.com"):
		return SocialLinkedIn
	case strings.Contains(u, "github.com"):
		return SocialGitHub
	case strings.Contains(u, "x.com"), strings.Contains(u, "twitter.com"):
		return SocialX
	case strings.Contains(u, "bsky.app"):
		return SocialBluesky
	case strings.Contains(u, "mastodon"):
		return SocialMastodon
	default:
		return SocialWebsite
	}
}

// SplitName splits a display name on whitespace: the first token is the
// first name, the remaining tokens joined by one space are the last name.
func SplitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// MergeConferenceIDs appends id to ids unless already present. Order is preserved.
func MergeConferenceIDs(ids []string, id string) []string {
	if id == "" || slices.Contains(ids, id) {
		return ids
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

// PersonSearchText is the denormalized text-search field of a Person.
func PersonSearchText(p *Person) string {
	parts := []string{p.FirstName, p.LastName, p.Email}
	if p.Speaker != nil {
		parts = append(parts, p.Speaker.Company)
	}
	return joinSearch(parts)
}

// Clone returns a deep copy of the person.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	if p.Speaker != nil {
		s := *p.Speaker
		s.SocialLinks = slices.Clone(p.Speaker.SocialLinks)
		s.ConferenceIDs = slices.Clone(p.Speaker.ConferenceIDs)
		c.Speaker = &s
	}
	return &c
}

// EmailIndexEntry maps a normalized email to the Person that owns it.
type EmailIndexEntry struct {
	Email     string
	PersonID  string
	CreatedAt time.Time
}

func joinSearch(parts []string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.ToLower(strings.Join(nonEmpty, " "))
}
