package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "Valid", input: "movie_fan42"},
		{name: "Trims whitespace", input: "  fan123  "},
		{name: "Too short", input: "ab", wantErr: true},
		{name: "Too long", input: strings.Repeat("a", 21), wantErr: true},
		{name: "Forbidden characters", input: "no spaces!", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Username(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmailLowercases(t *testing.T) {
	email, err := Email("Fan@Example.COM")
	assert.NoError(t, err)
	assert.Equal(t, "fan@example.com", email)

	_, err = Email("not-an-email")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRating(t *testing.T) {
	assert.NoError(t, Rating(0))
	assert.NoError(t, Rating(10))
	assert.NoError(t, Rating(7.5))
	assert.ErrorIs(t, Rating(-0.1), ErrValidation)
	assert.ErrorIs(t, Rating(10.1), ErrValidation)
}

func TestReviewText(t *testing.T) {
	_, err := ReviewText("too short")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ReviewText(strings.Repeat("x", MaxReviewLen+1))
	assert.ErrorIs(t, err, ErrValidation)

	text, err := ReviewText("  a perfectly reasonable review  ")
	assert.NoError(t, err)
	assert.Equal(t, "a perfectly reasonable review", text)
}

func TestPagination(t *testing.T) {
	page, perPage, err := Pagination(0, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPerPage, perPage)

	_, _, err = Pagination(-1, 20)
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = Pagination(1, MaxPerPage+1)
	assert.ErrorIs(t, err, ErrValidation)

	page, perPage, err = Pagination(3, MaxPerPage)
	assert.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxPerPage, perPage)
}
