package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("email", "required")

	if got := err.Error(); got != "validation: email: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "email", Message: "required"},
		{Field: "first_name", Message: "too long"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation, ErrConflict,
		ErrConfigMissing, ErrUpstreamUnavailable, ErrUpstreamBadResponse,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}

func TestIdentityErrors_WrapCategory(t *testing.T) {
	t.Parallel()

	if !errors.Is(ErrEmailMissing, ErrValidation) {
		t.Error("ErrEmailMissing should wrap ErrValidation")
	}
	if !errors.Is(ErrEmailExists, ErrConflict) {
		t.Error("ErrEmailExists should wrap ErrConflict")
	}
	if errors.Is(ErrEmailMissing, ErrEmailExists) || errors.Is(ErrEmailExists, ErrEmailMissing) {
		t.Error("ErrEmailMissing and ErrEmailExists must stay distinguishable")
	}
}

func TestImportError_UnwrapAndContext(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("person p1: %w", ErrEmailExists)
	err := &ImportError{
		ConferenceID: "conf-1",
		Stage:        ImportStageSpeakers,
		Report:       ImportReport{TrackAdded: 2},
		Err:          cause,
	}

	if !errors.Is(err, ErrEmailExists) {
		t.Fatal("ImportError should unwrap to its cause")
	}

	var ie *ImportError
	if !errors.As(fmt.Errorf("run: %w", err), &ie) {
		t.Fatal("errors.As should find the ImportError")
	}
	if ie.ConferenceID != "conf-1" || ie.Report.TrackAdded != 2 {
		t.Fatalf("unexpected context: %+v", ie)
	}
	if got := err.Error(); got != "import conf-1: speakers: person p1: email exists: conflict" {
		t.Fatalf("unexpected Error(): %q", got)
	}
}
