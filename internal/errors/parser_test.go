package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm translated", err: fmt.Errorf("insert review: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "postgres", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_reviews_check_id" (SQLSTATE 23505)`), want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: reviews.check_id"), want: true},
		{name: "foreign key", err: errors.New("FOREIGN KEY constraint failed"), want: false},
		{name: "not found", err: gorm.ErrRecordNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("find check: %w", gorm.ErrRecordNotFound)))
	assert.False(t, IsNotFound(errors.New("connection refused")))
}
