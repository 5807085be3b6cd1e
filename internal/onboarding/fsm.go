package onboarding

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/kanah-health/internal/domain"
)

type Step int

const (
	StepPhoneVerification Step = iota
	StepMotherDetails
	StepBabyDetails
	StepBirthType
	StepComplete
)

var stepNames = [...]string{"phone-verification", "mother-details", "baby-details", "birth-type", "complete"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Route is the screen the step is shown on.
func (s Step) Route() string {
	if s == StepComplete {
		return "/(tabs)"
	}
	return "/(onboarding)/" + s.String()
}

var ErrUnexpectedEvent = errors.New("event not accepted at this step")

// Event is one user action in the wizard.
type Event interface {
	event()
}

// SubmitPhone carries the number and the challenge the user answered.
type SubmitPhone struct {
	Phone     string
	Challenge *Challenge
}

type SubmitMotherDetails struct {
	FullName           string
	DateOfBirth        *domain.Date
	Location           string
	LanguagePreference domain.Language
}

type SubmitBabyDetails struct {
	Count      int
	BirthDates []domain.Date
}

type SubmitBirthType struct {
	BirthType domain.BirthType
}

type Back struct{}

func (SubmitPhone) event()         {}
func (SubmitMotherDetails) event() {}
func (SubmitBabyDetails) event()   {}
func (SubmitBirthType) event()     {}
func (Back) event()                {}

// Transition is the wizard's pure reducer. It returns the next step and the
// patch to merge into draft, or an error with step and draft unchanged.
func Transition(step Step, draft Draft, ev Event, now time.Time) (Step, Patch, error) {
	if _, ok := ev.(Back); ok {
		if step == StepPhoneVerification || step == StepComplete {
			return step, Patch{}, ErrUnexpectedEvent
		}
		return step - 1, Patch{}, nil
	}

	switch e := ev.(type) {
	case SubmitPhone:
		if step != StepPhoneVerification {
			break
		}
		if err := ValidatePhone(e.Phone); err != nil {
			return step, Patch{}, err
		}
		if e.Challenge == nil {
			return step, Patch{}, ErrOTPIncomplete
		}
		if err := e.Challenge.Verify(); err != nil {
			return step, Patch{}, err
		}
		phone := strings.ReplaceAll(e.Phone, " ", "")
		return StepMotherDetails, Patch{PhoneNumber: &phone}, nil

	case SubmitMotherDetails:
		if step != StepMotherDetails {
			break
		}
		if err := ValidateMother(e.FullName, e.DateOfBirth, e.LanguagePreference, now); err != nil {
			return step, Patch{}, err
		}
		name := strings.TrimSpace(e.FullName)
		p := Patch{FullName: &name, DateOfBirth: e.DateOfBirth}
		if loc := strings.TrimSpace(e.Location); loc != "" {
			p.Location = &loc
		}
		if e.LanguagePreference != "" {
			lang := e.LanguagePreference
			p.LanguagePreference = &lang
		}
		return StepBabyDetails, p, nil

	case SubmitBabyDetails:
		if step != StepBabyDetails {
			break
		}
		if err := ValidateBabies(e.Count, e.BirthDates, now); err != nil {
			return step, Patch{}, err
		}
		count := e.Count
		return StepBirthType, Patch{BabyNumber: &count, BabyBirthDates: e.BirthDates}, nil

	case SubmitBirthType:
		if step != StepBirthType {
			break
		}
		if err := ValidateBirthType(e.BirthType); err != nil {
			return step, Patch{}, err
		}
		// earlier answers must still hold when the wizard finishes
		if err := ValidateBabies(draft.BabyNumber, draft.BabyBirthDates, now); err != nil {
			return step, Patch{}, err
		}
		bt := e.BirthType
		return StepComplete, Patch{BirthType: &bt}, nil
	}

	return step, Patch{}, fmt.Errorf("%w: %T at %s", ErrUnexpectedEvent, ev, step)
}
