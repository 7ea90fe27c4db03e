package domain

import "time"

// ImportReport summarizes one import run. It is an output artifact, never persisted.
type ImportReport struct {
	SessionAdded     int       `json:"sessionAdded"`
	SessionUpdated   int       `json:"sessionUpdated"`
	SessionUnchanged int       `json:"sessionUnchanged"`
	SpeakerAdded     int       `json:"speakerAdded"`
	SpeakerUpdated   int       `json:"speakerUpdated"`
	SpeakerUnchanged int       `json:"speakerUnchanged"`
	SpeakerSkipped   int       `json:"speakerSkipped"`
	TrackAdded       int       `json:"trackAdded"`
	TrackUpdated     int       `json:"trackUpdated"`
	TrackUnchanged   int       `json:"trackUnchanged"`
	Chunks           int       `json:"chunks"`
	DryRun           bool      `json:"dryRun,omitempty"`
	ImportedAt       time.Time `json:"importedAt"`
}

// Changed reports whether the run staged any write.
func (r ImportReport) Changed() bool {
	return r.SessionAdded+r.SessionUpdated+
		r.SpeakerAdded+r.SpeakerUpdated+
		r.TrackAdded+r.TrackUpdated > 0
}

// WriteKind identifies the target of a staged write.
type WriteKind string

const (
	WritePerson       WriteKind = "person"
	WriteSession      WriteKind = "session"
	WriteTrack        WriteKind = "track"
	WriteEmailClaim   WriteKind = "email_claim"
	WriteEmailRelease WriteKind = "email_release"
)

// WriteOp is one staged mutation. Exactly one payload matches Kind:
// Person, Session or Track for entity writes; Email+OwnerID for index writes.
type WriteOp struct {
	Kind    WriteKind
	Person  *Person
	Session *Session
	Track   *Track
	Email   string
	OwnerID string
}

// PersonWrite stages a Person upsert.
func PersonWrite(p *Person) WriteOp { return WriteOp{Kind: WritePerson, Person: p} }

// SessionWrite stages a Session upsert.
func SessionWrite(s *Session) WriteOp { return WriteOp{Kind: WriteSession, Session: s} }

// TrackWrite stages a Track upsert.
func TrackWrite(t *Track) WriteOp { return WriteOp{Kind: WriteTrack, Track: t} }

// EmailClaim stages claim(email, ownerID): the commit fails with
// ErrEmailExists if the email is owned by someone else.
func EmailClaim(email, ownerID string) WriteOp {
	return WriteOp{Kind: WriteEmailClaim, Email: email, OwnerID: ownerID}
}

// EmailRelease stages release(email, ownerID): deletes the entry only if
// ownerID still owns it.
func EmailRelease(email, ownerID string) WriteOp {
	return WriteOp{Kind: WriteEmailRelease, Email: email, OwnerID: ownerID}
}
