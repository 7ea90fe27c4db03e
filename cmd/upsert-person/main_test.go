package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heartmarshall/cfp-sync/internal/domain"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"saved", nil, exitOK},
		{"email owned", fmt.Errorf("person.Save: %w", domain.ErrEmailExists), exitEmailExists},
		{"email missing", fmt.Errorf("person.Save: %w", domain.ErrEmailMissing), exitInvalid},
		{"field errors", domain.NewValidationError("email", "must contain @"), exitInvalid},
		{"store failure", errors.New("connection refused"), exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
