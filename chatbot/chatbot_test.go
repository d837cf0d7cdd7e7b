package chatbot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnswer(t *testing.T) {
	bot := New()

	testCases := []struct {
		name     string
		message  string
		contains string
	}{
		{
			name:     "treatment question",
			message:  "How do I treat rice blast?",
			contains: "Tricyclazole",
		},
		{
			name:     "symptom question",
			message:  "What are the symptoms of tungro",
			contains: "discoloration",
		},
		{
			name:     "prevention question",
			message:  "how to prevent brown spot?",
			contains: "fertilization",
		},
		{
			name:     "healthy crop",
			message:  "my crop looks healthy",
			contains: "no treatment",
		},
		{
			name:     "greeting",
			message:  "hello",
			contains: "Hello",
		},
		{
			name:     "list diseases",
			message:  "which diseases do you know?",
			contains: "Rice Blast",
		},
		{
			name:     "unrelated question",
			message:  "what is the weather today",
			contains: "rice leaf diseases",
		},
		{
			name:     "empty message",
			message:  "   ",
			contains: "ask me something",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reply := bot.Answer(tc.message)
			require.True(t, strings.Contains(reply, tc.contains),
				"reply %q does not contain %q", reply, tc.contains)
		})
	}
}

func TestGeneralDiseaseQuestionCoversAllSections(t *testing.T) {
	bot := New()

	reply := bot.Answer("tell me about blight")
	require.Contains(t, reply, "symptoms")
	require.Contains(t, reply, "Treatment")
	require.Contains(t, reply, "Prevention")
}
