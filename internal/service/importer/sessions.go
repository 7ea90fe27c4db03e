package importer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/internal/provider"
)

// reconcileSessions maps each submission to a Session and stages the
// inserts and updates whose owned content differs from the stored record.
func (s *Service) reconcileSessions(
	ctx context.Context,
	conf *domain.Conference,
	subs []provider.Submission,
	speakers resolvedSpeakers,
	tracks []*domain.Track,
	existing []*domain.Session,
	now time.Time,
	st *stager,
	report *domain.ImportReport,
) error {
	byExt := make(map[string]*domain.Session, len(existing))
	for _, sess := range existing {
		if sess.Conference.ExternalID != "" {
			byExt[sess.Conference.ExternalID] = sess
		}
	}

	seen := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		if _, dup := seen[sub.ID]; dup {
			s.log.WarnContext(ctx, "duplicate submission ignored",
				slog.String("conference_id", conf.ID),
				slog.String("external_id", sub.ID),
			)
			continue
		}
		seen[sub.ID] = struct{}{}

		slots, names := s.resolveSessionSpeakers(ctx, conf.ID, sub, speakers)
		typeID, typeLabel := matchSessionType(conf, sub.Formats)

		cur := byExt[sub.ID]
		var status domain.SessionStatus
		if cur != nil {
			status = cur.Conference.Status
		}

		next := cur.Clone()
		if next == nil {
			next = &domain.Session{ID: s.newID()}
		}
		next.Title = sub.Title
		next.Abstract = sub.Abstract
		next.References = sub.References
		next.SessionType = typeLabel
		next.Speakers = slots
		next.Search = domain.SessionSearchText(sub.Title, sub.Abstract, sub.References, sub.Categories, sub.Tags, names)
		next.Conference = domain.SessionConference{
			ConferenceID:  conf.ID,
			Status:        domain.NextSessionStatus(sub.DeliberationStatus, sub.ConfirmationStatus, status),
			ExternalID:    sub.ID,
			SessionTypeID: typeID,
			TrackID:       matchTrack(tracks, sub.Categories),
			SubmittedAt:   sub.SubmittedAt,
			Level:         sub.Level,
			Languages:     slices.Clone(sub.Languages),
			Review:        reviewOf(sub.Review),
		}

		if cur == nil {
			next.LastChangeDate = now
			st.stage(domain.SessionWrite(next))
			report.SessionAdded++
			continue
		}

		diff, err := changed(viewSession(cur), viewSession(next))
		if err != nil {
			return fmt.Errorf("session %s: %w", sub.ID, err)
		}
		if !diff {
			report.SessionUnchanged++
			continue
		}
		next.LastChangeDate = now
		st.stage(domain.SessionWrite(next))
		report.SessionUpdated++
	}
	return nil
}

// resolveSessionSpeakers maps the submission speakers to Person ids, keeping
// the first MaxSessionSpeakers. It also returns their display names.
func (s *Service) resolveSessionSpeakers(ctx context.Context, conferenceID string, sub provider.Submission, speakers resolvedSpeakers) (domain.SpeakerSlots, []string) {
	ids := make([]string, 0, len(sub.Speakers))
	for _, sp := range sub.Speakers {
		id, ok := speakers.ids[sp.ID]
		if !ok || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}

	slots, dropped := domain.FillSpeakerSlots(ids)
	if dropped > 0 {
		s.log.WarnContext(ctx, "speakers truncated",
			slog.String("conference_id", conferenceID),
			slog.String("external_id", sub.ID),
			slog.Int("dropped", dropped),
		)
	}

	names := make([]string, 0, domain.MaxSessionSpeakers)
	for _, id := range slots.IDs() {
		if n := speakers.names[id]; n != "" {
			names = append(names, n)
		}
	}
	return slots, names
}

// matchSessionType resolves the session type from the submission formats.
// Explicit format mappings are tried first, then the type names. The label
// is the resolved type name, else the first format.
func matchSessionType(conf *domain.Conference, formats []string) (id, label string) {
	id = matchFormatMapping(conf.FormatMappings, formats)
	if id == "" {
	names:
		for _, f := range formats {
			for _, t := range conf.SessionTypes {
				if domain.LabelsMatch(f, t.Name) {
					id = t.ID
					break names
				}
			}
		}
	}

	for _, t := range conf.SessionTypes {
		if id != "" && t.ID == id {
			return id, t.Name
		}
	}
	for _, f := range formats {
		if f = strings.TrimSpace(f); f != "" {
			return id, f
		}
	}
	return id, ""
}

func matchFormatMapping(mappings []domain.FormatMapping, formats []string) string {
	for _, f := range formats {
		for _, m := range mappings {
			if m.SessionTypeID != "" && domain.LabelsMatch(f, m.ExternalFormat) {
				return m.SessionTypeID
			}
		}
	}
	return ""
}

// matchTrack returns the track of the first category that matches one.
// An exact key match is preferred over containment.
func matchTrack(tracks []*domain.Track, categories []string) string {
	for _, c := range categories {
		key := domain.LabelKey(c)
		if key == "" {
			continue
		}
		for _, t := range tracks {
			if domain.LabelKey(t.Name) == key {
				return t.ID
			}
		}
		for _, t := range tracks {
			if domain.LabelsMatch(c, t.Name) {
				return t.ID
			}
		}
	}
	return ""
}

func reviewOf(r *provider.Review) *domain.SessionReview {
	if r == nil {
		return nil
	}
	out := &domain.SessionReview{Votes: r.Positives + r.Negatives}
	if r.Average != nil {
		avg := *r.Average
		out.Average = &avg
	}
	return out
}
