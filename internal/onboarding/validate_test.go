package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/notify"
)

var now = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{"+254712345678", ""},
		{"+254 712 345 678", ""},
		{"0712345678", "Phone number must start with +254"},
		{"+25471234567", "Phone number should be 13 digits (+254XXXXXXXXX)"},
		{"+2547123456789", "Phone number should be 13 digits (+254XXXXXXXXX)"},
		{"+2547123x5678", "Please enter valid digits after +254"},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			n := notify.FromError(err)
			assert.Equal(t, "Invalid Phone", n.Title)
			assert.Equal(t, tt.want, n.Message)
		})
	}
}

func TestSanitizePhone(t *testing.T) {
	assert.Equal(t, "+254", SanitizePhone("0712"))
	assert.Equal(t, "+254712", SanitizePhone("+254 7-12"))
	assert.Equal(t, "+254712345678", SanitizePhone("+2547123456789999"))
}

func TestValidateMother(t *testing.T) {
	assert.NoError(t, ValidateMother("Amina", nil, domain.LanguageEnglish, now))
	assert.NoError(t, ValidateMother("Amina", ptr(domain.NewDate(now)), "", now))
	assert.ErrorIs(t, ValidateMother("   ", nil, "", now), ErrNameRequired)
	assert.ErrorIs(t, ValidateMother("Amina", ptr(domain.NewDate(now.AddDate(0, 0, 1))), "", now), ErrFutureDOB)
	assert.ErrorIs(t, ValidateMother("Amina", nil, "french", now), ErrLanguageSelection)
}

func TestValidateBabies(t *testing.T) {
	todayDate := domain.NewDate(now)
	tomorrow := domain.NewDate(now.AddDate(0, 0, 1))

	tests := []struct {
		name  string
		count int
		dates []domain.Date
		want  error
	}{
		{"today is allowed", 1, []domain.Date{todayDate}, nil},
		{"three babies", 3, []domain.Date{todayDate, todayDate, todayDate}, nil},
		{"zero", 0, nil, ErrBabyCount},
		{"four", 4, []domain.Date{todayDate, todayDate, todayDate, todayDate}, ErrBabyCount},
		{"missing date", 2, []domain.Date{todayDate}, ErrBabyDates},
		{"zero date", 1, []domain.Date{{}}, ErrBabyDates},
		{"tomorrow", 2, []domain.Date{todayDate, tomorrow}, ErrFutureBirthDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBabies(tt.count, tt.dates, now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, "Birth date cannot be in the future", ErrFutureBirthDate.Message)
}

func TestValidateBirthType(t *testing.T) {
	assert.NoError(t, ValidateBirthType(domain.BirthTypeVaginal))
	assert.NoError(t, ValidateBirthType(domain.BirthTypeCSection))

	err := ValidateBirthType("")
	assert.ErrorIs(t, err, ErrSelectBirthType)
	assert.Equal(t, "Selection Required", notify.FromError(err).Title)
}
