package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (s *ErrorTestSuite) TestNewStatsError() {
	// Setup
	code := ErrNotFound
	message := "player not found"

	// Execute
	err := NewStatsError(code, message)

	// Assert
	s.Equal(code, err.Code, "Error code should match")
	s.Equal(message, err.Message, "Error message should match")
	s.Nil(err.Err, "Underlying error should be nil")
}

func (s *ErrorTestSuite) TestWrapError() {
	// Setup
	code := ErrPersistenceConnect
	message := "flush failed"
	underlying := errors.New("connection refused")

	// Execute
	err := WrapError(code, message, underlying)

	// Assert
	s.Equal(code, err.Code, "Error code should match")
	s.Equal(message, err.Message, "Error message should match")
	s.Equal(underlying, err.Err, "Underlying error should match")
	s.ErrorIs(err, underlying, "Underlying error should be reachable through Unwrap")
}

func (s *ErrorTestSuite) TestErrorString() {
	testCases := []struct {
		name     string
		err      *StatsError
		expected string
	}{
		{
			name:     "Simple error",
			err:      NewStatsError(ErrNotFound, "player not found"),
			expected: "NOT_FOUND: player not found",
		},
		{
			name:     "Wrapped error",
			err:      WrapError(ErrCorruptSnapshot, "cannot decode snapshot", errors.New("unexpected EOF")),
			expected: "CORRUPT_SNAPSHOT: cannot decode snapshot (unexpected EOF)",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, tc.err.Error(), "Error string should match expected format")
		})
	}
}

func (s *ErrorTestSuite) TestIsStatsError() {
	// Setup
	statsErr := NewStatsError(ErrValidation, "negative amount")
	wrapped := fmt.Errorf("record spent: %w", statsErr)
	regularErr := errors.New("regular error")

	testCases := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{name: "Matching stats error", err: statsErr, code: ErrValidation, expected: true},
		{name: "Wrapped stats error", err: wrapped, code: ErrValidation, expected: true},
		{name: "Non-matching stats error", err: statsErr, code: ErrNotFound, expected: false},
		{name: "Regular error", err: regularErr, code: ErrValidation, expected: false},
		{name: "Nil error", err: nil, code: ErrValidation, expected: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, IsStatsError(tc.err, tc.code), "IsStatsError result should match expected value")
		})
	}
}

func (s *ErrorTestSuite) TestAs() {
	// Setup
	statsErr := NewStatsError(ErrNotFound, "player not found")

	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "Stats error", err: statsErr, expected: true},
		{name: "Wrapped stats error", err: fmt.Errorf("search: %w", statsErr), expected: true},
		{name: "Regular error", err: errors.New("regular error"), expected: false},
		{name: "Nil error", err: nil, expected: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			var target *StatsError
			result := As(tc.err, &target)
			s.Equal(tc.expected, result, "As result should match expected value")
			if tc.expected {
				s.Equal(statsErr, target, "Target should be set to the stats error")
			}
		})
	}
}
