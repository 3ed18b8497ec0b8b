package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Field-level validation shared by the auth and interaction usecases.
// Failures wrap ErrValidation so delivery can map them to 400.

var ErrValidation = errors.New("validation failed")

const (
	MinUsernameLen = 3
	MaxUsernameLen = 20
	MinPasswordLen = 6
	MaxPasswordLen = 128
	MinReviewLen   = 10
	MaxReviewLen   = 5000
	MaxSearchLen   = 200

	MinRating = 0
	MaxRating = 10

	DefaultPerPage = 20
	MaxPerPage     = 100
)

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

func Username(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(username) < MinUsernameLen {
		return "", fmt.Errorf("%w: username must be at least %d characters", ErrValidation, MinUsernameLen)
	}
	if len(username) > MaxUsernameLen {
		return "", fmt.Errorf("%w: username cannot exceed %d characters", ErrValidation, MaxUsernameLen)
	}
	if !usernameRe.MatchString(username) {
		return "", fmt.Errorf("%w: username can only contain letters, numbers, and underscores", ErrValidation)
	}
	return username, nil
}

func Email(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailRe.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return strings.ToLower(email), nil
}

func Password(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(password) < MinPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return "", fmt.Errorf("%w: password is too long", ErrValidation)
	}
	return password, nil
}

func Rating(rating float64) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
	}
	return nil
}

func ReviewText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: review text cannot be empty", ErrValidation)
	}
	if len(text) < MinReviewLen {
		return "", fmt.Errorf("%w: review must be at least %d characters", ErrValidation, MinReviewLen)
	}
	if len(text) > MaxReviewLen {
		return "", fmt.Errorf("%w: review is too long (max %d characters)", ErrValidation, MaxReviewLen)
	}
	return text, nil
}

func SearchQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: search query is required", ErrValidation)
	}
	if len(query) > MaxSearchLen {
		return "", fmt.Errorf("%w: search query is too long (max %d characters)", ErrValidation, MaxSearchLen)
	}
	return query, nil
}

// Pagination normalises missing values to defaults and rejects out-of-range
// ones.
func Pagination(page, perPage int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}
	if perPage < 1 {
		return 0, 0, fmt.Errorf("%w: per_page must be >= 1", ErrValidation)
	}
	if perPage > MaxPerPage {
		return 0, 0, fmt.Errorf("%w: per_page cannot exceed %d", ErrValidation, MaxPerPage)
	}
	return page, perPage, nil
}
