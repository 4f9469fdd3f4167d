package chat

// Suggestions are offered as starting prompts on an empty thread.
var Suggestions = []string{
	"Explain quantum physics like I'm five",
	"Write a short story about a time traveler",
	"What's the best way to learn React?",
	"Help me plan a 3-day trip to Tokyo",
}
