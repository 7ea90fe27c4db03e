package importer

import (
	"strings"

	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/internal/provider"
)

// synthesizeTracks derives the conference tracks from the submission
// categories and stages creates and renames. It returns the full track set
// after the run, existing tracks included, for session matching.
func (s *Service) synthesizeTracks(
	conf *domain.Conference,
	subs []provider.Submission,
	existing []*domain.Track,
	st *stager,
	report *domain.ImportReport,
) []*domain.Track {
	byKey := make(map[string]*domain.Track, len(existing))
	out := make([]*domain.Track, 0, len(existing))
	for _, e := range existing {
		t := *e
		out = append(out, &t)
		if k := domain.LabelKey(t.Name); k != "" {
			if _, dup := byKey[k]; !dup {
				byKey[k] = &t
			}
		}
	}

	seen := make(map[string]struct{})
	for _, sub := range subs {
		for _, raw := range sub.Categories {
			name := strings.TrimSpace(raw)
			key := domain.LabelKey(name)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			if t, ok := byKey[key]; ok {
				if t.Name == name {
					report.TrackUnchanged++
					continue
				}
				t.Name = name
				st.stage(domain.TrackWrite(t))
				report.TrackUpdated++
				continue
			}

			t := &domain.Track{
				ID:           s.newID(),
				ConferenceID: conf.ID,
				Name:         name,
				Color:        s.cfg.DefaultTrackColor,
				Icon:         s.cfg.DefaultTrackIcon,
			}
			byKey[key] = t
			out = append(out, t)
			st.stage(domain.TrackWrite(t))
			report.TrackAdded++
		}
	}
	return out
}
