package clients

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

var (
	aiInstance *AIClient
	aiOnce     sync.Once
)

type AIClient struct {
	Client *openai.Client
}

func GetAIClient() *AIClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		slog.Error("[AIClient] Missing OPENAI_API_KEY in environment variables")
		panic("[AIClient] Missing OPENAI_API_KEY in environment variables")
	}
	aiOnce.Do(func() {
		httpClient := &http.Client{
			Timeout: openAIRequestTimeout,
		}
		aiInstance = &AIClient{
			Client: openai.NewClient(option.WithAPIKey(apiKey), option.WithHTTPClient(httpClient)),
		}
		slog.Info("[AIClient] OpenAI client initialized with custom HTTP timeout",
			slog.Duration("timeout", openAIRequestTimeout))
	})
	return aiInstance
}

// ChatCompleter sends one system+user exchange per call, pacing requests
// so a burst of concurrent video summaries does not trip the model API's
// own rate limits.
type ChatCompleter struct {
	ai      *AIClient
	model   openai.ChatModel
	limiter *rate.Limiter
}

func NewChatCompleter(ai *AIClient, model string, requestsPerSec float64) *ChatCompleter {
	if requestsPerSec <= 0 {
		requestsPerSec = 2
	}
	return &ChatCompleter{
		ai:      ai,
		model:   openai.ChatModel(model),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
}

func (c *ChatCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	chatCompletion, err := c.ai.Client.Chat.Completions.New(ctx,
		openai.ChatCompletionNewParams{
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			}),
			Model:       openai.F(c.model),
			Temperature: openai.Float(0.5),
		})
	if err != nil {
		return "", err
	}

	if len(chatCompletion.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return chatCompletion.Choices[0].Message.Content, nil
}
