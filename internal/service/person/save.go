package person

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/pkg/ctxutil"
)

// Save creates or updates one Person. The person read, the reads of the old
// and new email entries, the conditional release, the claim and the person
// write all run in one transaction.
//
// Returns domain.ErrEmailMissing for a blank email and domain.ErrEmailExists
// when another Person owns the email.
func (s *Service) Save(ctx context.Context, input SaveInput) (*domain.Person, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(input.Email)

	var saved *domain.Person
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var existing *domain.Person
		id := input.ID
		if id != "" {
			p, err := s.persons.GetByID(ctx, id)
			switch {
			case errors.Is(err, domain.ErrNotFound):
			case err != nil:
				return fmt.Errorf("get person: %w", err)
			default:
				existing = p
			}
		} else {
			id = s.newID()
		}

		owner, err := s.ownerOf(ctx, email)
		if err != nil {
			return err
		}
		if owner != "" && owner != id {
			return fmt.Errorf("%s owned by person %s: %w", email, owner, domain.ErrEmailExists)
		}

		if existing != nil {
			if old := domain.NormalizeEmail(existing.Email); old != "" && old != email {
				oldOwner, err := s.ownerOf(ctx, old)
				if err != nil {
					return err
				}
				if oldOwner == id {
					if err := s.identity.Release(ctx, old, id); err != nil {
						return fmt.Errorf("release %s: %w", old, err)
					}
				}
			}
		}

		if owner == "" {
			if err := s.identity.Claim(ctx, email, id); err != nil {
				return fmt.Errorf("claim %s: %w", email, err)
			}
		}

		now := s.now().UTC()
		p := existing.Clone()
		if p == nil {
			p = &domain.Person{ID: id, CreatedAt: now}
		}
		p.Email = email
		p.FirstName = strings.TrimSpace(input.FirstName)
		p.LastName = strings.TrimSpace(input.LastName)
		p.PreferredLanguage = input.PreferredLanguage
		p.HasAccount = input.HasAccount
		p.IsPlatformAdmin = input.IsPlatformAdmin
		p.Search = domain.PersonSearchText(p)
		p.UpdatedAt = now

		if err := s.persons.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert person: %w", err)
		}
		saved = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("person.Save: %w", err)
	}

	attrs := []any{slog.String("person_id", saved.ID)}
	if r, ok := ctxutil.RequesterFromCtx(ctx); ok {
		attrs = append(attrs, slog.String("requested_by", r.Email))
	}
	s.log.InfoContext(ctx, "person saved", attrs...)

	return saved, nil
}

func (s *Service) ownerOf(ctx context.Context, email string) (string, error) {
	e, err := s.identity.Get(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("get email entry %s: %w", email, err)
	default:
		return e.PersonID, nil
	}
}
