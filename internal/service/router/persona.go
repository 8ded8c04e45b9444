package router

import (
	"codecalm/internal/service/classifier"
	"fmt"
	"strings"
)

const (
	defaultApology = "I apologize, but I'm having trouble connecting to the AI services. Please try again in a moment."
	personaApology = "I'm here for you! Could you tell me more? 💙"
)

// Persona is the static configuration behind one category: what the model is told,
// how long it may answer and how replies are dressed for the user.
type Persona struct {
	Category  classifier.Category
	Prompt    string
	MaxTokens int
	// Emoji is appended to persona replies that do not already carry it
	Emoji string
	// Tutor personas embed the teaching mode in the prompt
	Tutor   bool
	Apology string
}

const tutorPrompt = `You are CodeGent, a patient programming tutor on the CodeCalm platform.

Teaching mode: %s (step %d, learner understanding: %s)

In guiding mode, do not hand over finished solutions. Ask one or two focused questions, name the concept involved and suggest the next small step the learner can try on their own.
In solution-ready mode, give a complete working answer, explain briefly why it works and finish with one short follow-up exercise.

Keep answers concise and encouraging. Put code in fenced blocks.`

var personas = map[classifier.Category]Persona{
	classifier.CategoryCoding:      {Category: classifier.CategoryCoding, Prompt: tutorPrompt, MaxTokens: 1500, Tutor: true, Apology: defaultApology},
	classifier.CategoryExplanation: {Category: classifier.CategoryExplanation, Prompt: tutorPrompt, MaxTokens: 1500, Tutor: true, Apology: defaultApology},
	classifier.CategoryGeneral:     {Category: classifier.CategoryGeneral, Prompt: tutorPrompt, MaxTokens: 1500, Tutor: true, Apology: defaultApology},

	classifier.CategoryStudent: {
		Category: classifier.CategoryStudent,
		Emoji:    "📚",
		Prompt: `You are a warm study companion for students. Help with study plans, exam nerves, focus and motivation.
Break big tasks into small steps, celebrate progress and suggest one concrete action per reply.`,
	},
	classifier.CategoryParent: {
		Category: classifier.CategoryParent,
		Emoji:    "💙",
		Prompt: `You are a supportive companion for parents. Offer practical, non-judgmental ideas for family routines,
communication with children and parental stress. Acknowledge feelings before giving advice.`,
	},
	classifier.CategoryProfessional: {
		Category: classifier.CategoryProfessional,
		Emoji:    "💼",
		Prompt: `You are a calm workplace coach. Help with workload, prioritisation, difficult conversations and career growth.
Keep advice specific and realistic for a busy person.`,
	},
	classifier.CategoryFitness: {
		Category: classifier.CategoryFitness,
		Emoji:    "💪",
		Prompt: `You are an encouraging fitness and nutrition companion. Suggest safe, beginner-friendly activity and meal ideas.
Never diagnose; recommend a professional for medical concerns.`,
	},
	classifier.CategoryWeatherFood: {
		Category: classifier.CategoryWeatherFood,
		Emoji:    "🍽️",
		Prompt: `You are a friendly food companion who suggests meals and drinks that suit the user's weather, mood and time of day.
Offer two or three simple options with a one-line reason each.`,
	},
	classifier.CategoryZen: {
		Category: classifier.CategoryZen,
		Emoji:    "🧘",
		Prompt: `You are a gentle mindfulness guide. Offer short breathing exercises, grounding techniques and kind reflections.
Speak slowly and simply; keep replies short.`,
	},
}

// PersonaFor returns the persona configured for c. Unknown categories get the general tutor.
func PersonaFor(c classifier.Category) Persona {
	p, ok := personas[c]
	if !ok {
		p = personas[classifier.CategoryGeneral]
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 500
	}
	if p.Apology == "" {
		p.Apology = personaApology
	}
	return p
}

// SystemPrompt renders the persona prompt for the session's current state.
func (p Persona) SystemPrompt(sess *AssistantSession, threshold int) string {
	if p.Tutor {
		return fmt.Sprintf(p.Prompt, sess.State.Mode(threshold), sess.State.Step, sess.State.understanding())
	}

	var b strings.Builder
	b.WriteString(p.Prompt)
	if sess.Context.Mood != "" && sess.Context.Mood != classifier.MoodNeutral {
		fmt.Fprintf(&b, "\n\nThe user seems %s right now; respond with matching empathy.", sess.Context.Mood)
	}
	if len(sess.Context.FocusAreas) > 0 {
		fmt.Fprintf(&b, "\nCurrent focus areas: %s.", strings.Join(sess.Context.FocusAreas, ", "))
	}
	return b.String()
}

var empathyPrefixes = map[classifier.Mood]string{
	classifier.MoodStressed: "I can sense you're feeling overwhelmed. ",
	classifier.MoodSad:      "I'm here for you during this tough time. ",
	classifier.MoodHappy:    "I'm so glad to hear you're doing well! ",
}

// replies that already acknowledge feelings get no extra prefix
var empathyMarkers = []string{"understand", "sense", "hear", "glad"}

// Decorate adds the mood prefix and persona emoji to a successful persona reply.
// Tutor replies are returned unchanged.
func (p Persona) Decorate(mood classifier.Mood, response string) string {
	if p.Tutor {
		return response
	}

	if prefix, ok := empathyPrefixes[mood]; ok {
		lower := strings.ToLower(response)
		acknowledged := false
		for _, m := range empathyMarkers {
			if strings.Contains(lower, m) {
				acknowledged = true
				break
			}
		}
		if !acknowledged {
			response = prefix + response
		}
	}

	if p.Emoji != "" && !strings.Contains(response, p.Emoji) {
		response = response + " " + p.Emoji
	}
	return response
}
