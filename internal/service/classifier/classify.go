package classifier

// Classify routes a coding-tutor message.
//
// Rules, first match wins:
//   - any coding/debugging keyword selects CategoryCoding
//   - any explanation/teaching keyword selects CategoryExplanation
//   - everything else, including empty text, selects CategoryGeneral
func Classify(text string) (Category, string) {
	return MatchFirst(text, RouteRules, CategoryGeneral, generalReason)
}

// DetectMood returns the first matching mood, or MoodNeutral.
func DetectMood(text string) Mood {
	mood, _ := MatchFirst(text, MoodRules, MoodNeutral, "")
	return mood
}

// FocusAreas returns the topics a persona message touches. Only personas with
// focus tables produce results.
func FocusAreas(category Category, text string) []string {
	switch category {
	case CategoryStudent:
		return MatchAll(text, StudentFocusRules)
	case CategoryProfessional:
		return MatchAll(text, ProfessionalFocusRules)
	default:
		return nil
	}
}
