package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ridelink/config"
	"ridelink/models"
	"ridelink/utils"

	"go.uber.org/zap"
)

// SlotExtractor turns free-form conversation turns into structured booking
// slots. Extraction is best-effort: a failed or unparseable turn yields an
// empty extraction, never an error that would disturb the dialogue.
type SlotExtractor interface {
	Extract(ctx context.Context, phone string, history []models.Message) models.Extraction
}

// TextGenerator is the language-model call the extractor depends on.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeminiExtractor implements SlotExtractor on a Gemini text model.
type GeminiExtractor struct {
	generator TextGenerator
}

// NewGeminiExtractor wires the extractor with a text generator.
func NewGeminiExtractor(generator TextGenerator) *GeminiExtractor {
	return &GeminiExtractor{generator: generator}
}

const extractionPromptTemplate = `You are the slot extractor for a ride booking assistant on WhatsApp.
Current date and time: %s (%s).

From the conversation below, extract the booking details the USER has stated.
Reply with ONLY a JSON object, no markdown, no commentary:
{
  "from": "pickup location or empty string",
  "to": "destination or empty string",
  "dateTime": "requested pickup as YYYY-MM-DD HH:MM in the timezone above, or empty string",
  "driverPhone": "driver phone number if the user named one, or empty string",
  "responseType": "one of: confirmation, rejection, location, time, phone, auto_assign, vague",
  "needsClarification": false,
  "clarificationMessage": "question to ask the user, only when needsClarification is true"
}

Rules:
- Only fill a field when the user's latest message states or changes it. Leave
  every other field as an empty string so earlier answers are kept.
- "tomorrow", "tonight", "in 2 hours" must be resolved to a concrete dateTime
  using the current time above.
- Use "auto_assign" when the user asks for any driver or automatic assignment.
- Use "vague" and set needsClarification when the message cannot be mapped to
  a slot.

Conversation:
%s`

// Extract runs the extraction prompt over recent history. Any failure logs
// and returns the empty extraction so stored slots are never overwritten.
func (e *GeminiExtractor) Extract(ctx context.Context, phone string, history []models.Message) models.Extraction {
	logger := utils.GetLogger()
	if e.generator == nil {
		return models.Extraction{ResponseType: models.ResponseVague}
	}

	loc := config.Location()
	now := time.Now().In(loc)
	prompt := fmt.Sprintf(extractionPromptTemplate,
		now.Format("2006-01-02 15:04"), config.AppConfig.Timezone, renderHistory(history))

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		logger.Warn("Slot extraction call failed", zap.String("phone", phone), zap.Error(err))
		return models.Extraction{ResponseType: models.ResponseVague}
	}

	extraction, err := ParseExtraction(raw)
	if err != nil {
		logger.Warn("Slot extraction returned unparseable output",
			zap.String("phone", phone), zap.String("raw", raw), zap.Error(err))
		return models.Extraction{ResponseType: models.ResponseVague}
	}
	return extraction
}

// ParseExtraction decodes the model's JSON reply, tolerating markdown fences.
func ParseExtraction(raw string) (models.Extraction, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var extraction models.Extraction
	if err := json.Unmarshal([]byte(cleaned), &extraction); err != nil {
		return models.Extraction{}, fmt.Errorf("invalid extraction JSON: %w", err)
	}
	if extraction.ResponseType == "" {
		extraction.ResponseType = models.ResponseVague
	}
	return extraction, nil
}

func renderHistory(history []models.Message) string {
	var sb strings.Builder
	for _, msg := range history {
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
