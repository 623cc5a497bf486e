package autopilot

import (
	"fmt"
	"strings"

	"github.com/happypaws/happypaws/internal/model"
)

// maxHistoryTurns caps the conversation context sent upstream. Older
// messages are dropped from the front.
const maxHistoryTurns = 12

const basePrompt = `You are the friendly booking assistant for Happy Paws, Andy's dog-walking service in Manchester.
Answer briefly and warmly. Help visitors with walk times, prices, service areas and booking.
Always try to learn the dog's breed, age, and the owner's preferred walk times.
If you don't know an answer, say Andy will follow up personally. Never invent prices or availability.`

// SystemPrompt combines the base instructions with the admin-editable
// business description, when one is set.
func SystemPrompt(businessDescription string) string {
	desc := strings.TrimSpace(businessDescription)
	if desc == "" {
		return basePrompt
	}
	return fmt.Sprintf("%s\n\nBusiness details:\n%s", basePrompt, desc)
}

// BuildHistory converts stored chat messages into provider turns. Admin
// replies and prior autopilot replies both map to the assistant role;
// system rows (typing markers, diagnostics) are skipped.
func BuildHistory(msgs []*model.ChatMessage) []Message {
	history := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Sender {
		case model.SenderUser:
			history = append(history, Message{Role: RoleUser, Content: msg.Message})
		case model.SenderAdmin:
			history = append(history, Message{Role: RoleAssistant, Content: msg.Message})
		}
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	return history
}
