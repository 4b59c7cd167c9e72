package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/commentpulse/internal/models"
)

// ChatClient is the single exchange the summarizer needs from a language
// model: a system instruction and a user prompt in, raw reply text out.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Service struct {
	chat        ChatClient
	maxComments int
	maxChars    int
}

func New(chat ChatClient, maxComments, maxChars int) *Service {
	if maxComments <= 0 {
		maxComments = DefaultMaxComments
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Service{
		chat:        chat,
		maxComments: maxComments,
		maxChars:    maxChars,
	}
}

// Summarize renders the prompt for one video and parses the model reply
// into pros, cons and next_hot_topic lists. A reply that is not a JSON
// object carrying all three keys fails with ErrSummaryParse. No retry
// happens here; retry policy belongs to the orchestrator.
func (s *Service) Summarize(ctx context.Context, title, channelTitle string, comments []string) (models.VideoSummary, error) {
	promptContext := BuildContext(SanitizeComments(comments), s.maxComments, s.maxChars)
	prompt := RenderPrompt(title, channelTitle, promptContext)

	start := time.Now()
	raw, err := s.chat.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return models.VideoSummary{}, fmt.Errorf("summarizer request: %w", err)
	}
	slog.Debug("[Summarizer] Reply received",
		slog.String("title", title),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("reply_chars", len(raw)))

	return ParseSummary(raw)
}

// ParseSummary decodes a model reply. Markdown fences and curly quotes are
// tolerated, as is prose around the JSON object; a missing key is not.
func ParseSummary(raw string) (models.VideoSummary, error) {
	cleaned := cleanReply(raw)

	fields, err := decodeObject(cleaned)
	if err != nil {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start == -1 || end <= start {
			return models.VideoSummary{}, fmt.Errorf("no JSON object in reply: %w", models.ErrSummaryParse)
		}
		fields, err = decodeObject(cleaned[start : end+1])
		if err != nil {
			return models.VideoSummary{}, fmt.Errorf("invalid JSON in reply: %w", models.ErrSummaryParse)
		}
	}

	var summary models.VideoSummary
	required := []struct {
		key string
		dst *[]string
	}{
		{"pros", &summary.Pros},
		{"cons", &summary.Cons},
		{"next_hot_topic", &summary.NextHotTopic},
	}
	for _, field := range required {
		rawValue, ok := fields[field.key]
		if !ok {
			return models.VideoSummary{}, fmt.Errorf("reply missing key %q: %w", field.key, models.ErrSummaryParse)
		}
		values, err := decodeStringList(rawValue)
		if err != nil {
			return models.VideoSummary{}, fmt.Errorf("key %q: %v: %w", field.key, err, models.ErrSummaryParse)
		}
		*field.dst = values
	}
	return summary, nil
}

// cleanReply strips markdown fences and normalizes typographic quotes that
// models sneak into otherwise valid JSON.
func cleanReply(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	return strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", `'`,
		"’", `'`,
	).Replace(cleaned)
}

func decodeObject(s string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// decodeStringList accepts an array of strings and tolerates a bare string
// value by wrapping it in a single-element list.
func decodeStringList(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		return list, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			return []string{}, nil
		}
		return []string{single}, nil
	}

	return nil, errors.New("expected an array of strings")
}
