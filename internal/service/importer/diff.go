package importer

import (
	"fmt"

	"github.com/wI2L/jsondiff"

	"github.com/heartmarshall/cfp-sync/internal/domain"
)

// personView is the part of a Person the speaker reconciler owns.
// Timestamps and the id are excluded so they never trigger a write.
type personView struct {
	Email             string                 `json:"email"`
	FirstName         string                 `json:"firstName"`
	LastName          string                 `json:"lastName"`
	HasAccount        bool                   `json:"hasAccount"`
	IsPlatformAdmin   bool                   `json:"isPlatformAdmin"`
	IsSpeaker         bool                   `json:"isSpeaker"`
	PreferredLanguage string                 `json:"preferredLanguage"`
	Search            string                 `json:"search"`
	Speaker           *domain.SpeakerProfile `json:"speaker"`
}

func viewPerson(p *domain.Person) personView {
	if p == nil {
		return personView{}
	}
	return personView{
		Email:             p.Email,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		HasAccount:        p.HasAccount,
		IsPlatformAdmin:   p.IsPlatformAdmin,
		IsSpeaker:         p.IsSpeaker,
		PreferredLanguage: p.PreferredLanguage,
		Search:            p.Search,
		Speaker:           p.Speaker,
	}
}

// sessionView is the part of a Session the session reconciler owns.
type sessionView struct {
	Title       string                   `json:"title"`
	Abstract    string                   `json:"abstract"`
	References  string                   `json:"references"`
	SessionType string                   `json:"sessionType"`
	Speakers    domain.SpeakerSlots      `json:"speakers"`
	Search      string                   `json:"search"`
	Conference  domain.SessionConference `json:"conference"`
}

func viewSession(s *domain.Session) sessionView {
	return sessionView{
		Title:       s.Title,
		Abstract:    s.Abstract,
		References:  s.References,
		SessionType: s.SessionType,
		Speakers:    s.Speakers,
		Search:      s.Search,
		Conference:  s.Conference,
	}
}

// changed reports whether the JSON forms of before and after differ.
func changed(before, after any) (bool, error) {
	patch, err := jsondiff.Compare(before, after)
	if err != nil {
		return false, fmt.Errorf("diff: %w", err)
	}
	return len(patch) > 0, nil
}
