package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prperemyshlev/kanah-health/internal/domain"
)

func answeredChallenge(t *testing.T) *Challenge {
	t.Helper()
	c, err := NewChallenge()
	require.NoError(t, err)
	c.Enter(c.Code())
	return c
}

func TestTransition_HappyPath(t *testing.T) {
	draft := NewDraft()
	step := StepPhoneVerification
	birth := mustDate(t, "2026-02-14")

	events := []struct {
		ev   Event
		want Step
	}{
		{SubmitPhone{Phone: "+254712345678", Challenge: answeredChallenge(t)}, StepMotherDetails},
		{SubmitMotherDetails{FullName: "  Amina Wanjiru ", Location: "Kisumu", LanguagePreference: domain.LanguageSwahili}, StepBabyDetails},
		{SubmitBabyDetails{Count: 2, BirthDates: []domain.Date{birth, birth}}, StepBirthType},
		{SubmitBirthType{BirthType: domain.BirthTypeCSection}, StepComplete},
	}

	for _, e := range events {
		next, patch, err := Transition(step, draft, e.ev, now)
		require.NoError(t, err, "%T", e.ev)
		assert.Equal(t, e.want, next)
		step, draft = next, draft.Merge(patch)
	}

	assert.Equal(t, "+254712345678", draft.PhoneNumber)
	assert.Equal(t, "Amina Wanjiru", draft.FullName)
	assert.Equal(t, "Kisumu", *draft.Location)
	assert.Equal(t, domain.LanguageSwahili, draft.LanguagePreference)
	assert.Equal(t, 2, draft.BabyNumber)
	assert.Len(t, draft.BabyBirthDates, 2)
	assert.Equal(t, domain.BirthTypeCSection, *draft.BirthType)
}

func TestTransition_ValidationKeepsStep(t *testing.T) {
	wrong, err := NewChallenge()
	require.NoError(t, err)
	wrong.Enter("12")

	tests := []struct {
		name string
		step Step
		ev   Event
		want error
	}{
		{"bad phone", StepPhoneVerification, SubmitPhone{Phone: "0712345678", Challenge: answeredChallenge(t)}, nil},
		{"incomplete otp", StepPhoneVerification, SubmitPhone{Phone: "+254712345678", Challenge: wrong}, ErrOTPIncomplete},
		{"no challenge", StepPhoneVerification, SubmitPhone{Phone: "+254712345678"}, ErrOTPIncomplete},
		{"blank name", StepMotherDetails, SubmitMotherDetails{FullName: " "}, ErrNameRequired},
		{"future baby", StepBabyDetails, SubmitBabyDetails{Count: 1, BirthDates: []domain.Date{domain.NewDate(now.AddDate(0, 0, 1))}}, ErrFutureBirthDate},
		{"no birth type", StepBirthType, SubmitBirthType{}, ErrSelectBirthType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := NewDraft().Merge(Patch{BabyBirthDates: []domain.Date{mustDate(t, "2026-01-01")}})

			next, patch, err := Transition(tt.step, draft, tt.ev, now)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.step, next)
			assert.Equal(t, draft, draft.Merge(patch))
		})
	}
}

func TestTransition_UnexpectedEvents(t *testing.T) {
	tests := []struct {
		step Step
		ev   Event
	}{
		{StepPhoneVerification, SubmitBirthType{BirthType: domain.BirthTypeVaginal}},
		{StepMotherDetails, SubmitPhone{Phone: "+254712345678"}},
		{StepBirthType, SubmitBabyDetails{Count: 1}},
		{StepComplete, SubmitBirthType{BirthType: domain.BirthTypeVaginal}},
		{StepPhoneVerification, Back{}},
		{StepComplete, Back{}},
	}

	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			next, _, err := Transition(tt.step, NewDraft(), tt.ev, now)
			assert.ErrorIs(t, err, ErrUnexpectedEvent)
			assert.Equal(t, tt.step, next)
		})
	}
}

func TestTransition_BackKeepsData(t *testing.T) {
	draft := NewDraft().Merge(Patch{FullName: ptr("Amina"), BabyNumber: ptr(2)})

	next, patch, err := Transition(StepBirthType, draft, Back{}, now)
	require.NoError(t, err)
	assert.Equal(t, StepBabyDetails, next)
	assert.Equal(t, draft, draft.Merge(patch))
}

func TestTransition_BirthTypeRechecksBabies(t *testing.T) {
	draft := NewDraft().Merge(Patch{BabyNumber: ptr(2), BabyBirthDates: []domain.Date{mustDate(t, "2026-01-01")}})

	_, _, err := Transition(StepBirthType, draft, SubmitBirthType{BirthType: domain.BirthTypeVaginal}, now)
	assert.ErrorIs(t, err, ErrBabyDates)
}

func TestStepRoute(t *testing.T) {
	assert.Equal(t, "/(onboarding)/phone-verification", StepPhoneVerification.Route())
	assert.Equal(t, "/(onboarding)/birth-type", StepBirthType.Route())
	assert.Equal(t, "/(tabs)", StepComplete.Route())
}
