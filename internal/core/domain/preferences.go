package domain

type UserPreferences struct {
	Aesthetics          []string `json:"aesthetics"`
	OnboardingCompleted bool     `json:"onboardingCompleted"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{Aesthetics: []string{}}
}

// PreferencesPatch carries the fields a caller wants to change; nil leaves a field as is.
type PreferencesPatch struct {
	Aesthetics          *[]string `json:"aesthetics,omitempty"`
	OnboardingCompleted *bool     `json:"onboardingCompleted,omitempty"`
}

func (p UserPreferences) Apply(patch PreferencesPatch) UserPreferences {
	out := p
	if patch.Aesthetics != nil {
		out.Aesthetics = append([]string{}, (*patch.Aesthetics)...)
	}
	if patch.OnboardingCompleted != nil {
		out.OnboardingCompleted = *patch.OnboardingCompleted
	}
	if out.Aesthetics == nil {
		out.Aesthetics = []string{}
	}
	return out
}
