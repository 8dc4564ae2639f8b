package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"lock timeout", &pq.Error{Code: "55P03"}, true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"serialization", fmt.Errorf("insert: %w", &pq.Error{Code: "40001"}), true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("wrap: %w", &pq.Error{Code: "23505"})) {
		t.Error("expected wrapped 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "55P03"}) {
		t.Error("lock timeout is not a unique violation")
	}
}

func TestInTransaction(t *testing.T) {
	if InTransaction(context.Background()) {
		t.Error("background context carries no transaction")
	}
}
