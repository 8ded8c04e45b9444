package classifier

// Routing table for the coding tutor. Order is priority: coding beats explanation.
var RouteRules = []Rule[Category]{
	{
		Tag: CategoryCoding,
		Keywords: []string{
			"code", "function", "loop", "print", "algorithm", "debug", "program",
			"syntax", "variable", "array", "list", "error", "fix", "implement",
			"write", "class", "method", "bug",
		},
		Reason: "Coding/debugging task detected - routed to the code generation model",
	},
	{
		Tag: CategoryExplanation,
		Keywords: []string{
			"explain", "why", "how does", "difference between", "compare", "what is",
			"teach me", "help me understand", "concept", "theory", "meaning", "define",
		},
		Reason: "Explanation/teaching query - routed to the conceptual explanation model",
	},
}

const generalReason = "General conversation - routed to the fast general-purpose model"

// MoodRules detect the tone of persona messages, stressed first.
var MoodRules = []Rule[Mood]{
	{Tag: MoodStressed, Keywords: []string{"stressed", "anxious", "worried", "overwhelmed", "panic", "pressure"}},
	{Tag: MoodHappy, Keywords: []string{"happy", "excited", "great", "awesome", "wonderful", "fantastic"}},
	{Tag: MoodSad, Keywords: []string{"sad", "depressed", "down", "upset", "crying", "lonely"}},
}

// StudentFocusRules pick the study topics a student message touches.
var StudentFocusRules = []Rule[string]{
	{Tag: "exam preparation", Keywords: []string{"exam", "test", "quiz", "finals"}},
	{Tag: "homework help", Keywords: []string{"homework", "assignment", "project", "essay"}},
	{Tag: "time management", Keywords: []string{"deadline", "schedule", "procrastinat", "time management"}},
	{Tag: "motivation", Keywords: []string{"motivat", "lazy", "give up", "focus"}},
}

// ProfessionalFocusRules pick the work topics a professional message touches.
var ProfessionalFocusRules = []Rule[string]{
	{Tag: "workload", Keywords: []string{"deadline", "workload", "overtime", "too much work"}},
	{Tag: "career growth", Keywords: []string{"promotion", "career", "interview", "raise", "skills"}},
	{Tag: "workplace relationships", Keywords: []string{"boss", "manager", "colleague", "coworker", "team"}},
	{Tag: "work-life balance", Keywords: []string{"burnout", "balance", "family time", "exhausted"}},
}
