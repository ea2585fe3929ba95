package service

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIsDuplicateRecord(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"translated sentinel", gorm.ErrDuplicatedKey, true},
		{"wrapped sentinel", fmt.Errorf("insert failed: %w", gorm.ErrDuplicatedKey), true},
		{"raw postgres message", errors.New(`ERROR: duplicate key value violates unique constraint "user_uploads_pkey" (SQLSTATE 23505)`), true},
		{"unrelated failure", errors.New("connection refused"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isDuplicateRecord(tc.err); got != tc.want {
				t.Fatalf("isDuplicateRecord(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
