package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/internal/provider"
)

// resolvedSpeakers is the output of speaker reconciliation.
type resolvedSpeakers struct {
	// ids maps external speaker id to local Person id. Skipped speakers are absent.
	ids map[string]string
	// names maps local Person id to display name.
	names map[string]string
}

// speakerLookup is the read-only state gathered for one unique speaker.
type speakerLookup struct {
	email    string
	existing *domain.Person
	// owner is the Person id the email index holds for email, "" if unowned.
	owner string
	// orphanID is set when the index points at a Person that no longer exists.
	orphanID string
}

// reconcileSpeakers resolves every unique speaker of the run to a Person
// and stages the person writes with their email index updates.
func (s *Service) reconcileSpeakers(
	ctx context.Context,
	conf *domain.Conference,
	subs []provider.Submission,
	existing []*domain.Person,
	now time.Time,
	st *stager,
	report *domain.ImportReport,
) (resolvedSpeakers, error) {
	out := resolvedSpeakers{ids: make(map[string]string), names: make(map[string]string)}

	speakers := collectSpeakers(subs)
	if len(speakers) == 0 {
		return out, nil
	}

	byExt := make(map[string]*domain.Person, len(existing))
	for _, p := range existing {
		if p.Speaker != nil && p.Speaker.ExternalID != "" {
			byExt[p.Speaker.ExternalID] = p
		}
	}

	lookups, err := s.lookupSpeakers(ctx, speakers, byExt)
	if err != nil {
		return out, err
	}

	claimed := make(map[string]string)  // email -> person id
	resolved := make(map[string]string) // person id -> external id
	for i, sp := range speakers {
		lk := lookups[i]
		if lk.email == "" {
			report.SpeakerSkipped++
			s.log.WarnContext(ctx, "speaker skipped: no email",
				slog.String("conference_id", conf.ID),
				slog.String("external_id", sp.ID),
			)
			continue
		}

		var personID string
		switch {
		case lk.existing != nil:
			personID = lk.existing.ID
		case lk.orphanID != "":
			personID = lk.orphanID
		default:
			personID = s.newID()
		}

		if lk.owner != "" && lk.owner != personID {
			return out, fmt.Errorf("speaker %s: %w: %s is owned by person %s", sp.ID, domain.ErrEmailExists, lk.email, lk.owner)
		}
		if other, ok := claimed[lk.email]; ok && other != personID {
			return out, fmt.Errorf("speaker %s: %w: %s already claimed in this run", sp.ID, domain.ErrEmailExists, lk.email)
		}
		if other, ok := resolved[personID]; ok {
			return out, fmt.Errorf("speaker %s: %w: person %s already resolved for speaker %s", sp.ID, domain.ErrEmailExists, personID, other)
		}
		claimed[lk.email] = personID
		resolved[personID] = sp.ID

		next := s.mergeSpeaker(conf, lk.existing, sp, lk.email)
		next.ID = personID

		out.ids[sp.ID] = personID
		out.names[personID] = displayName(next)

		if lk.existing == nil {
			next.CreatedAt = now
			next.UpdatedAt = now
			st.stage(domain.EmailClaim(lk.email, personID), domain.PersonWrite(next))
			report.SpeakerAdded++
			continue
		}

		diff, err := changed(viewPerson(lk.existing), viewPerson(next))
		if err != nil {
			return out, fmt.Errorf("speaker %s: %w", sp.ID, err)
		}
		if !diff {
			report.SpeakerUnchanged++
			if lk.owner == "" {
				// Content is current but the index entry is missing.
				st.stage(domain.EmailClaim(lk.email, personID))
			}
			continue
		}

		group := make([]domain.WriteOp, 0, 3)
		if old := domain.NormalizeEmail(lk.existing.Email); old != "" && old != lk.email {
			group = append(group, domain.EmailRelease(old, personID))
		}
		next.UpdatedAt = now
		group = append(group, domain.EmailClaim(lk.email, personID), domain.PersonWrite(next))
		st.stage(group...)
		report.SpeakerUpdated++
	}

	return out, nil
}

// lookupSpeakers reads the email index for all speakers with bounded
// parallelism, then loads the owners not already known in one batch.
// Results are positional.
func (s *Service) lookupSpeakers(
	ctx context.Context,
	speakers []provider.SpeakerPayload,
	byExt map[string]*domain.Person,
) ([]speakerLookup, error) {
	lookups := make([]speakerLookup, len(speakers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ReadConcurrency)

	for i, sp := range speakers {
		g.Go(func() error {
			lk := speakerLookup{existing: byExt[sp.ID]}

			lk.email = domain.NormalizeEmail(sp.Email)
			if lk.email == "" && lk.existing != nil {
				lk.email = domain.NormalizeEmail(lk.existing.Email)
			}
			if lk.email != "" {
				owner, err := s.identity.OwnerOf(gctx, lk.email)
				if err != nil {
					return fmt.Errorf("speaker %s: owner of email: %w", sp.ID, err)
				}
				lk.owner = owner
			}

			lookups[i] = lk
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var owners []string
	for _, lk := range lookups {
		if lk.existing == nil && lk.owner != "" {
			owners = append(owners, lk.owner)
		}
	}
	if len(owners) == 0 {
		return lookups, nil
	}

	found, err := s.persons.GetByIDs(ctx, owners)
	if err != nil {
		return nil, fmt.Errorf("get email owners: %w", err)
	}
	for i := range lookups {
		lk := &lookups[i]
		if lk.existing != nil || lk.owner == "" {
			continue
		}
		if p, ok := found[lk.owner]; ok {
			lk.existing = p
		} else {
			lk.orphanID = lk.owner
		}
	}
	return lookups, nil
}

// collectSpeakers returns the unique speakers of subs by external id, in
// first-seen order. Repeated occurrences fill fields the earlier ones left
// empty; the first non-empty value of each field wins.
func collectSpeakers(subs []provider.Submission) []provider.SpeakerPayload {
	index := make(map[string]int)
	var out []provider.SpeakerPayload
	for _, sub := range subs {
		for _, sp := range sub.Speakers {
			if sp.ID == "" {
				continue
			}
			i, ok := index[sp.ID]
			if !ok {
				index[sp.ID] = len(out)
				out = append(out, sp)
				continue
			}
			fillEmpty(&out[i], sp)
		}
	}
	return out
}

func fillEmpty(dst *provider.SpeakerPayload, src provider.SpeakerPayload) {
	firstNonEmpty(&dst.Name, src.Name)
	firstNonEmpty(&dst.Email, src.Email)
	firstNonEmpty(&dst.Bio, src.Bio)
	firstNonEmpty(&dst.Company, src.Company)
	firstNonEmpty(&dst.References, src.References)
	firstNonEmpty(&dst.Picture, src.Picture)
	if len(dst.SocialLinks) == 0 && len(src.SocialLinks) > 0 {
		dst.SocialLinks = src.SocialLinks
	}
}

func firstNonEmpty(dst *string, v string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(v) != "" {
		*dst = v
	}
}

// mergeSpeaker applies the payload onto a copy of base. Non-empty payload
// fields overwrite; empty ones keep the stored value.
func (s *Service) mergeSpeaker(conf *domain.Conference, base *domain.Person, sp provider.SpeakerPayload, email string) *domain.Person {
	next := base.Clone()
	if next == nil {
		next = &domain.Person{}
	}

	next.Email = email
	if first, last := domain.SplitName(sp.Name); first != "" {
		next.FirstName, next.LastName = first, last
	}
	next.IsSpeaker = true
	if next.PreferredLanguage == "" {
		next.PreferredLanguage = conf.PrimaryLanguage(s.cfg.DefaultLanguage)
	}

	if next.Speaker == nil {
		next.Speaker = &domain.SpeakerProfile{}
	}
	prof := next.Speaker
	// A person keeps the first external id it was imported with; later
	// events that reach it by email do not rewrite it.
	if prof.ExternalID == "" {
		prof.ExternalID = sp.ID
	}
	overwrite(&prof.Bio, sp.Bio)
	overwrite(&prof.Company, sp.Company)
	overwrite(&prof.References, sp.References)
	overwrite(&prof.PhotoURL, sp.Picture)
	if links := classifyLinks(sp.SocialLinks); len(links) > 0 {
		prof.SocialLinks = links
	}
	prof.ConferenceIDs = domain.MergeConferenceIDs(prof.ConferenceIDs, conf.ID)

	next.Search = domain.PersonSearchText(next)
	return next
}

func overwrite(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func classifyLinks(urls []string) []domain.SocialLink {
	var links []domain.SocialLink
	for _, u := range urls {
		if u = strings.TrimSpace(u); u == "" {
			continue
		}
		links = append(links, domain.SocialLink{Network: domain.ClassifySocialLink(u), URL: u})
	}
	return links
}

func displayName(p *domain.Person) string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
