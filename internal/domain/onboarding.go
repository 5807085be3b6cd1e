package domain

// Onboarding steps reported as missing, in the order they are checked.
const (
	StepUserAccount   = "user_account"
	StepMotherAccount = "mother_account"
	StepBabyAccount   = "baby_account"
)

// OnboardingStatus tells whether a user has the full user -> mother -> babies record set.
type OnboardingStatus struct {
	IsComplete   bool     `json:"is_complete"`
	MissingSteps []string `json:"missing_steps"`
	User         *User    `json:"user,omitempty"`
	Mother       *Mother  `json:"mother,omitempty"`
	Babies       []*Baby  `json:"babies,omitempty"`
}
