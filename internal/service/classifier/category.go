package classifier

// Category is the closed set of labels used to pick a provider and a prompt.
type Category string

const (
	CategoryCoding      Category = "coding"
	CategoryExplanation Category = "explanation"
	CategoryGeneral     Category = "general"

	CategoryStudent      Category = "student"
	CategoryParent       Category = "parent"
	CategoryProfessional Category = "professional"
	CategoryFitness      Category = "fitness"
	CategoryWeatherFood  Category = "weather_food"
	CategoryZen          Category = "zen"
)

var allCategories = []Category{
	CategoryCoding, CategoryExplanation, CategoryGeneral,
	CategoryStudent, CategoryParent, CategoryProfessional,
	CategoryFitness, CategoryWeatherFood, CategoryZen,
}

// ParseCategory maps a raw label to a Category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range allCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Categories returns every known category.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// IsPersona reports whether c selects a companion persona rather than the coding tutor.
func (c Category) IsPersona() bool {
	switch c {
	case CategoryStudent, CategoryParent, CategoryProfessional,
		CategoryFitness, CategoryWeatherFood, CategoryZen:
		return true
	}
	return false
}

// Mood is the emotional tone detected in a persona message.
type Mood string

const (
	MoodStressed Mood = "stressed"
	MoodHappy    Mood = "happy"
	MoodSad      Mood = "sad"
	MoodNeutral  Mood = "neutral"
)
