package router

import "codecalm/internal/service/classifier"

// DefaultRoutes maps every category to the provider that serves it.
var DefaultRoutes = map[classifier.Category]string{
	classifier.CategoryCoding:      "claude",
	classifier.CategoryExplanation: "gpt",
	classifier.CategoryGeneral:     "gemini",

	classifier.CategoryStudent:      "groq",
	classifier.CategoryParent:       "groq",
	classifier.CategoryProfessional: "groq",
	classifier.CategoryFitness:      "groq",
	classifier.CategoryWeatherFood:  "groq",
	classifier.CategoryZen:          "groq",
}

// RoutesWith returns DefaultRoutes with overrides applied. Override keys that are not
// known categories are ignored.
func RoutesWith(overrides map[string]string) map[classifier.Category]string {
	routes := make(map[classifier.Category]string, len(DefaultRoutes)+len(overrides))
	for c, name := range DefaultRoutes {
		routes[c] = name
	}
	for raw, name := range overrides {
		if c, ok := classifier.ParseCategory(raw); ok {
			routes[c] = name
		}
	}
	return routes
}
