package chatbot

import (
	"fmt"
	"sort"
	"strings"

	"riceguard/inference"
)

// Bot is an offline, rule-based assistant answering rice disease
// questions from the knowledge base. No network calls, no model.
type Bot struct {
	diseases []string
}

// New creates a bot over the current knowledge base.
func New() *Bot {
	diseases := inference.KnownDiseases()
	sort.Strings(diseases)
	return &Bot{diseases: diseases}
}

type intent int

const (
	intentGeneral intent = iota
	intentSymptoms
	intentTreatment
	intentPrevention
)

// Answer produces a reply for one user message.
func (b *Bot) Answer(message string) string {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return "Please ask me something about rice leaf diseases."
	}

	disease := b.matchDisease(msg)
	in := matchIntent(msg)

	switch {
	case disease == "" && (strings.Contains(msg, "hello") || strings.Contains(msg, "hi ") || msg == "hi"):
		return "Hello! Ask me about rice diseases like Rice Blast, Blight or Tungro, and I can list symptoms, treatment and prevention."
	case disease == "" && strings.Contains(msg, "disease"):
		return "I know about: " + strings.Join(b.diseases, ", ") + ". Ask about any of them."
	case disease == "":
		return "I can help with rice leaf diseases. Try asking e.g. \"How do I treat rice blast?\""
	}

	if disease == inference.HealthyDisease {
		g := inference.Lookup(inference.HealthyDisease, inference.SeverityNone)
		return "A healthy crop needs no treatment. Keep it that way: " + strings.Join(g.Prevention, "; ") + "."
	}

	// The Moderate tier is the reference answer for general questions.
	g := inference.Lookup(disease, inference.SeverityModerate)

	switch in {
	case intentSymptoms:
		return fmt.Sprintf("Typical symptoms of %s: %s.", disease, strings.Join(g.Symptoms, "; "))
	case intentTreatment:
		return fmt.Sprintf("Recommended treatment for %s: %s.", disease, strings.Join(g.Treatment, "; "))
	case intentPrevention:
		return fmt.Sprintf("To prevent %s: %s.", disease, strings.Join(g.Prevention, "; "))
	default:
		return fmt.Sprintf("%s symptoms: %s. Treatment: %s. Prevention: %s.",
			disease,
			strings.Join(g.Symptoms, "; "),
			strings.Join(g.Treatment, "; "),
			strings.Join(g.Prevention, "; "))
	}
}

func (b *Bot) matchDisease(msg string) string {
	for _, d := range b.diseases {
		if strings.Contains(msg, strings.ToLower(d)) {
			return d
		}
	}
	return ""
}

func matchIntent(msg string) intent {
	switch {
	case strings.Contains(msg, "symptom") || strings.Contains(msg, "sign") || strings.Contains(msg, "look like"):
		return intentSymptoms
	case strings.Contains(msg, "treat") || strings.Contains(msg, "cure") || strings.Contains(msg, "spray"):
		return intentTreatment
	case strings.Contains(msg, "prevent") || strings.Contains(msg, "avoid") || strings.Contains(msg, "protect"):
		return intentPrevention
	default:
		return intentGeneral
	}
}
