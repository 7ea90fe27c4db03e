package importer

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/heartmarshall/cfp-sync/internal/domain"
)

// memStore is an in-memory stand-in for the Postgres adapters. CommitBatch
// applies a chunk atomically with the same claim and release rules as the
// email index.
type memStore struct {
	mu          sync.Mutex
	conferences map[string]*domain.Conference
	persons     map[string]*domain.Person
	sessions    map[string]*domain.Session
	tracks      map[string]*domain.Track
	emails      map[string]string

	commits    [][]domain.WriteOp
	failCommit int // 1-based CommitBatch call that fails, 0 for none
	calls      int
	ownerReads int // GetByIDs calls
}

func newMemStore() *memStore {
	return &memStore{
		conferences: make(map[string]*domain.Conference),
		persons:     make(map[string]*domain.Person),
		sessions:    make(map[string]*domain.Session),
		tracks:      make(map[string]*domain.Track),
		emails:      make(map[string]string),
	}
}

func (m *memStore) putPerson(p *domain.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persons[p.ID] = p.Clone()
	if e := domain.NormalizeEmail(p.Email); e != "" {
		m.emails[e] = p.ID
	}
}

func (m *memStore) putSession(s *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
}

func (m *memStore) putTrack(t *domain.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	m.tracks[t.ID] = &c
}

// snapshot is a deep copy of the entity state for equality checks.
type snapshot struct {
	Persons  map[string]*domain.Person
	Sessions map[string]*domain.Session
	Tracks   map[string]domain.Track
	Emails   map[string]string
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snapshot{
		Persons:  make(map[string]*domain.Person, len(m.persons)),
		Sessions: make(map[string]*domain.Session, len(m.sessions)),
		Tracks:   make(map[string]domain.Track, len(m.tracks)),
		Emails:   maps.Clone(m.emails),
	}
	for id, p := range m.persons {
		s.Persons[id] = p.Clone()
	}
	for id, sess := range m.sessions {
		s.Sessions[id] = sess.Clone()
	}
	for id, t := range m.tracks {
		s.Tracks[id] = *t
	}
	return s
}

func (m *memStore) sessionByExternalID(extID string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Conference.ExternalID == extID {
			return s.Clone()
		}
	}
	return nil
}

func (m *memStore) personByExternalID(extID string) *domain.Person {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.persons {
		if p.Speaker != nil && p.Speaker.ExternalID == extID {
			return p.Clone()
		}
	}
	return nil
}

// CommitBatch implements batchCommitter.
func (m *memStore) CommitBatch(_ context.Context, ops []domain.WriteOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failCommit == m.calls {
		return fmt.Errorf("commit batch: connection reset")
	}

	emails := maps.Clone(m.emails)
	for _, op := range ops {
		switch op.Kind {
		case domain.WriteEmailClaim:
			if owner, ok := emails[op.Email]; ok && owner != op.OwnerID {
				return fmt.Errorf("claim %s: %w", op.Email, domain.ErrEmailExists)
			}
			emails[op.Email] = op.OwnerID
		case domain.WriteEmailRelease:
			if emails[op.Email] == op.OwnerID {
				delete(emails, op.Email)
			}
		}
	}

	m.emails = emails
	for _, op := range ops {
		switch op.Kind {
		case domain.WritePerson:
			m.persons[op.Person.ID] = op.Person.Clone()
		case domain.WriteSession:
			next := op.Session.Clone()
			if cur, ok := m.sessions[next.ID]; ok {
				next.Schedule = cur.Schedule
			}
			m.sessions[next.ID] = next
		case domain.WriteTrack:
			t := *op.Track
			m.tracks[t.ID] = &t
		}
	}
	m.commits = append(m.commits, slices.Clone(ops))
	return nil
}

type memConferences struct{ *memStore }

func (m memConferences) GetByID(_ context.Context, id string) (*domain.Conference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conferences[id]
	if !ok {
		return nil, fmt.Errorf("conference %s: %w", id, domain.ErrNotFound)
	}
	out := *c
	return &out, nil
}

type memPersons struct{ *memStore }

func (m memPersons) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ownerReads++
	out := make(map[string]*domain.Person, len(ids))
	for _, id := range ids {
		if p, ok := m.persons[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (m memPersons) ListByConference(_ context.Context, conferenceID string) ([]*domain.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Person
	for _, p := range m.persons {
		if p.Speaker != nil && slices.Contains(p.Speaker.ConferenceIDs, conferenceID) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

type memSessions struct{ *memStore }

func (m memSessions) ListByConference(_ context.Context, conferenceID string) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	for _, s := range m.sessions {
		if s.Conference.ConferenceID == conferenceID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

type memTracks struct{ *memStore }

func (m memTracks) ListByConference(_ context.Context, conferenceID string) ([]*domain.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Track
	for _, t := range m.tracks {
		if t.ConferenceID == conferenceID {
			c := *t
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Track) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

type memIdentity struct{ *memStore }

func (m memIdentity) OwnerOf(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emails[email], nil
}
