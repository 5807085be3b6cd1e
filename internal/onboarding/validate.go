package onboarding

import (
	"strings"
	"time"

	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/notify"
	"github.com/prperemyshlev/kanah-health/internal/utils"
)

// ValidationError rejects a step's input. The draft is left untouched.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Notice() notify.Notice {
	return notify.Notice{Severity: notify.SeverityError, Title: e.Title, Message: e.Message}
}

var (
	ErrOTPIncomplete     = &ValidationError{Title: "Incomplete OTP", Message: "Please enter all 6 digits"}
	ErrOTPIncorrect      = &ValidationError{Title: "Invalid OTP", Message: "The code you entered is incorrect"}
	ErrNameRequired      = &ValidationError{Title: "Name Required", Message: "Please enter your full name"}
	ErrFutureBirthDate   = &ValidationError{Title: "Invalid Date", Message: "Birth date cannot be in the future"}
	ErrFutureDOB         = &ValidationError{Title: "Invalid Date", Message: "Date of birth cannot be in the future"}
	ErrBabyCount         = &ValidationError{Title: "Invalid Selection", Message: "Please choose between 1 and 3 babies"}
	ErrBabyDates         = &ValidationError{Title: "Invalid Date", Message: "Please pick a birth date for each baby"}
	ErrSelectBirthType   = &ValidationError{Title: "Selection Required", Message: "Please select your birth type"}
	ErrLanguageSelection = &ValidationError{Title: "Invalid Selection", Message: "Please choose English or Swahili"}
)

// SanitizePhone normalises raw keystrokes into the +254 form.
func SanitizePhone(text string) string {
	return utils.SanitizePhoneInput(text)
}

func ValidatePhone(phone string) error {
	if err := utils.CheckPhone(phone); err != nil {
		return &ValidationError{Title: "Invalid Phone", Message: err.Error()}
	}
	return nil
}

// today is now's calendar day; dates are compared at day granularity.
func today(now time.Time) domain.Date {
	return domain.NewDate(now)
}

func ValidateMother(fullName string, dob *domain.Date, language domain.Language, now time.Time) error {
	if strings.TrimSpace(fullName) == "" {
		return ErrNameRequired
	}
	if dob != nil && dob.After(today(now)) {
		return ErrFutureDOB
	}
	if language != "" && !language.Valid() {
		return ErrLanguageSelection
	}
	return nil
}

func ValidateBabies(count int, dates []domain.Date, now time.Time) error {
	if count < 1 || count > domain.MaxBabies {
		return ErrBabyCount
	}
	if len(dates) != count {
		return ErrBabyDates
	}
	day := today(now)
	for _, d := range dates {
		if d.IsZero() {
			return ErrBabyDates
		}
		if d.After(day) {
			return ErrFutureBirthDate
		}
	}
	return nil
}

func ValidateBirthType(bt domain.BirthType) error {
	if !bt.Valid() {
		return ErrSelectBirthType
	}
	return nil
}
