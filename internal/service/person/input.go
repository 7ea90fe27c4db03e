package person

import (
	"strings"

	"github.com/heartmarshall/cfp-sync/internal/domain"
)

// SaveInput holds the editable fields of a Person. An empty ID creates a
// new Person.
type SaveInput struct {
	ID                string
	Email             string
	FirstName         string
	LastName          string
	PreferredLanguage string
	HasAccount        bool
	IsPlatformAdmin   bool
}

// Validate checks the input. A blank email returns domain.ErrEmailMissing
// so callers can tell it apart from other validation failures.
func (i SaveInput) Validate() error {
	if domain.NormalizeEmail(i.Email) == "" {
		return domain.ErrEmailMissing
	}

	var errs []domain.FieldError
	if len(i.Email) > 320 {
		errs = append(errs, domain.FieldError{Field: "email", Message: "too long"})
	} else if !strings.Contains(i.Email, "@") {
		errs = append(errs, domain.FieldError{Field: "email", Message: "invalid format"})
	}
	if len(i.FirstName) > 255 {
		errs = append(errs, domain.FieldError{Field: "first_name", Message: "too long"})
	}
	if len(i.LastName) > 255 {
		errs = append(errs, domain.FieldError{Field: "last_name", Message: "too long"})
	}
	if len(i.PreferredLanguage) > 16 {
		errs = append(errs, domain.FieldError{Field: "preferred_language", Message: "too long"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
