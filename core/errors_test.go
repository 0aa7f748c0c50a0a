package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsUnavailable(t *testing.T) {
	configErr := NewDomainError(ModuleVector, ErrorCodeConfiguration, "collection not found")
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, got error)
	}{
		{"nil", nil, func(t *testing.T, got error) { assert.NoError(t, got) }},
		{"plain error", errors.New("i/o timeout"), func(t *testing.T, got error) {
			assert.True(t, IsUnavailable(got))
			assert.Contains(t, got.Error(), "i/o timeout")
		}},
		{"canceled", fmt.Errorf("search: %w", context.Canceled), func(t *testing.T, got error) {
			assert.ErrorIs(t, got, context.Canceled)
			assert.False(t, IsUnavailable(got))
		}},
		{"deadline", context.DeadlineExceeded, func(t *testing.T, got error) {
			assert.Equal(t, context.DeadlineExceeded, got)
		}},
		{"classified error kept", configErr, func(t *testing.T, got error) {
			assert.Same(t, configErr, got)
			assert.False(t, IsUnavailable(got))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, AsUnavailable(ModuleRecall, "catalog search", tt.err))
		})
	}
}

func TestDomainErrorIs(t *testing.T) {
	err := fmt.Errorf("node recall.catalog: %w", NewDomainError(ModuleRecall, ErrorCodeConfiguration, "no index"))
	assert.True(t, IsConfiguration(err))
	assert.False(t, IsInvalidInput(err))
	assert.ErrorIs(t, err, &DomainError{Code: ErrorCodeConfiguration, Module: ModuleRecall})
	assert.NotErrorIs(t, err, &DomainError{Code: ErrorCodeConfiguration, Module: ModuleCatalog})
}
