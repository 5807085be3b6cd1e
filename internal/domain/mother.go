package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and column format for calendar dates.
const DateLayout = "2006-01-02"

type BirthType string

const (
	BirthTypeVaginal  BirthType = "vaginal"
	BirthTypeCSection BirthType = "c_section"
)

func (b BirthType) Valid() bool {
	return b == BirthTypeVaginal || b == BirthTypeCSection
}

type Language string

const (
	LanguageEnglish Language = "english"
	LanguageSwahili Language = "swahili"
)

func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageSwahili
}

type SubscriptionStatus string

const (
	SubscriptionFree    SubscriptionStatus = "free"
	SubscriptionPremium SubscriptionStatus = "premium"
)

// MaxBabies bounds how many babies a mother registers during onboarding.
const MaxBabies = 3

// Mother is the profile created at the end of onboarding; one per user.
type Mother struct {
	ID                 string             `json:"id" db:"id"`
	UserID             string             `json:"user_id" db:"user_id"`
	BirthType          BirthType          `json:"birth_type" db:"birth_type"`
	LanguagePreference Language           `json:"language_preference" db:"language_preference"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	DOB                *Date              `json:"dob,omitempty" db:"dob"`
	Location           *string            `json:"location,omitempty" db:"location"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// Baby is one child of a mother, ordered by a 1-based BabyNumber.
type Baby struct {
	ID         string    `json:"id" db:"id"`
	MotherID   string    `json:"mother_id" db:"mother_id"`
	BirthDate  Date      `json:"birth_date" db:"birth_date"`
	BabyNumber int       `json:"baby_number" db:"baby_number"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Date is a calendar day without a time-of-day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// After reports whether d is a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
