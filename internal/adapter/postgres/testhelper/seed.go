package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/cfp-sync/internal/domain"
)

// UniqueID returns prefix followed by a short random suffix.
func UniqueID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// Now returns the current time as stored by PostgreSQL: UTC, microsecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SeedConference creates a conference with one "Talk" session type and
// complete CFP credentials.
func SeedConference(t *testing.T, pool *pgxpool.Pool) domain.Conference {
	t.Helper()

	conf := domain.Conference{
		ID:           UniqueID("conf"),
		Name:         "Test Conference",
		Languages:    []string{"en"},
		SessionTypes: []domain.SessionType{{ID: "st1", Name: "Talk"}},
		FormatMappings: []domain.FormatMapping{
			{SessionTypeID: "st1", ExternalFormat: "Conference"},
		},
		CFP: domain.CFPCredentials{EventID: UniqueID("evt"), APIKey: "key"},
	}

	types, err := json.Marshal(conf.SessionTypes)
	if err != nil {
		t.Fatalf("testhelper: SeedConference marshal session types: %v", err)
	}
	mappings, err := json.Marshal(conf.FormatMappings)
	if err != nil {
		t.Fatalf("testhelper: SeedConference marshal mappings: %v", err)
	}

	_, err = pool.Exec(context.Background(),
		`INSERT INTO conferences (id, name, languages, session_types, format_mappings, cfp_event_id, cfp_api_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		conf.ID, conf.Name, conf.Languages, types, mappings, conf.CFP.EventID, conf.CFP.APIKey,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedConference insert: %v", err)
	}
	return conf
}

// SeedPerson creates a speaker linked to conferenceID and claims its email.
func SeedPerson(t *testing.T, pool *pgxpool.Pool, conferenceID string) domain.Person {
	t.Helper()
	ctx := context.Background()

	id := UniqueID("person")
	now := Now()
	p := domain.Person{
		ID:                id,
		Email:             id + "@example.com",
		FirstName:         "Ada",
		LastName:          "Lovelace",
		IsSpeaker:         true,
		PreferredLanguage: "en",
		Speaker: &domain.SpeakerProfile{
			ExternalID:    UniqueID("spk"),
			Bio:           "Analyst",
			ConferenceIDs: []string{conferenceID},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Search = domain.PersonSearchText(&p)

	speaker, err := json.Marshal(p.Speaker)
	if err != nil {
		t.Fatalf("testhelper: SeedPerson marshal speaker: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO persons (id, email, first_name, last_name, is_speaker, preferred_language, search, speaker, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Email, p.FirstName, p.LastName, p.IsSpeaker, p.PreferredLanguage, p.Search, speaker, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPerson insert person: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO person_emails (email, person_id, created_at) VALUES ($1, $2, $3)`,
		p.Email, p.ID, now,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPerson insert email: %v", err)
	}
	return p
}

// SeedTrack creates a track named name in conferenceID.
func SeedTrack(t *testing.T, pool *pgxpool.Pool, conferenceID, name string) domain.Track {
	t.Helper()

	tr := domain.Track{
		ID:           UniqueID("track"),
		ConferenceID: conferenceID,
		Name:         name,
		Color:        "#7C3AED",
		Icon:         "tag",
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO tracks (id, conference_id, name, name_key, description, color, icon)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tr.ID, tr.ConferenceID, tr.Name, domain.LabelKey(tr.Name), tr.Description, tr.Color, tr.Icon,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTrack insert: %v", err)
	}
	return tr
}
