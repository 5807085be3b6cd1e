// Package onboarding collects a new mother's profile over several steps and
// writes it to the API once the last step is submitted.
package onboarding

import (
	"slices"

	"github.com/prperemyshlev/kanah-health/internal/domain"
)

// Draft is the profile being built across wizard steps.
type Draft struct {
	PhoneNumber        string
	FullName           string
	DateOfBirth        *domain.Date
	Location           *string
	LanguagePreference domain.Language
	BabyBirthDates     []domain.Date
	BabyNumber         int
	BirthType          *domain.BirthType
}

func NewDraft() Draft {
	return Draft{
		LanguagePreference: domain.LanguageEnglish,
		BabyNumber:         1,
	}
}

func (d *Draft) Reset() {
	*d = NewDraft()
}

// Patch is a partial Draft. Nil fields are absent and leave the draft alone.
type Patch struct {
	PhoneNumber        *string
	FullName           *string
	DateOfBirth        *domain.Date
	Location           *string
	LanguagePreference *domain.Language
	BabyBirthDates     []domain.Date
	BabyNumber         *int
	BirthType          *domain.BirthType
}

// Merge returns d with every present field of p applied.
func (d Draft) Merge(p Patch) Draft {
	if p.PhoneNumber != nil {
		d.PhoneNumber = *p.PhoneNumber
	}
	if p.FullName != nil {
		d.FullName = *p.FullName
	}
	if p.DateOfBirth != nil {
		dob := *p.DateOfBirth
		d.DateOfBirth = &dob
	}
	if p.Location != nil {
		loc := *p.Location
		d.Location = &loc
	}
	if p.LanguagePreference != nil {
		d.LanguagePreference = *p.LanguagePreference
	}
	if p.BabyBirthDates != nil {
		d.BabyBirthDates = slices.Clone(p.BabyBirthDates)
	}
	if p.BabyNumber != nil {
		d.BabyNumber = *p.BabyNumber
	}
	if p.BirthType != nil {
		bt := *p.BirthType
		d.BirthType = &bt
	}
	return d
}

// Then combines two patches; fields present in next win.
func (p Patch) Then(next Patch) Patch {
	if next.PhoneNumber != nil {
		p.PhoneNumber = next.PhoneNumber
	}
	if next.FullName != nil {
		p.FullName = next.FullName
	}
	if next.DateOfBirth != nil {
		p.DateOfBirth = next.DateOfBirth
	}
	if next.Location != nil {
		p.Location = next.Location
	}
	if next.LanguagePreference != nil {
		p.LanguagePreference = next.LanguagePreference
	}
	if next.BabyBirthDates != nil {
		p.BabyBirthDates = next.BabyBirthDates
	}
	if next.BabyNumber != nil {
		p.BabyNumber = next.BabyNumber
	}
	if next.BirthType != nil {
		p.BirthType = next.BirthType
	}
	return p
}
