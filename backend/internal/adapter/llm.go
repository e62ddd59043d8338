package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"recall/backend/internal/extract"
	"recall/backend/pkg/errors"
	"recall/backend/pkg/logger"
)

// LLMAdapter handles communication with the embedding and chat backends
// through any OpenAI-compatible endpoint
type LLMAdapter struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	timeout        time.Duration
	logger         *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter. baseURL may be empty for the
// hosted OpenAI API; local endpoints accept a dummy key.
func NewLLMAdapter(baseURL, apiKey, chatModel, embeddingModel string, timeout time.Duration) *LLMAdapter {
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &LLMAdapter{
		client:         openai.NewClientWithConfig(config),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		timeout:        timeout,
		logger:         logger.Get(),
	}
}

// Embed converts one text into a fixed-length vector
func (a *LLMAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch converts texts into vectors in one request
func (a *LLMAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(a.embeddingModel),
		Input: texts,
	})
	if err != nil {
		a.logger.Warn("Embedding request failed",
			zap.String("model", a.embeddingModel),
			zap.Int("texts", len(texts)),
			zap.Error(err),
		)
		return nil, errors.NewLLMUnavailable("embedding", a.embeddingModel, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.NewLLMUnavailable("embedding", a.embeddingModel,
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// Answer synthesizes a grounded answer to a question from retrieved context
func (a *LLMAdapter) Answer(ctx context.Context, question, contextText string) (string, error) {
	contextText = truncate(contextText, 3000)

	prompt := fmt.Sprintf(`Based on the following context, answer the question.
If the answer is not in the context, say so.

Context:
%s

Question: %s

Answer:`, contextText, question)

	return a.generate(ctx, prompt, 500, 0.5)
}

// ExtractTopics asks the chat model for 3-5 main topics of a text.
// Failures are the caller's concern; the indexer treats them as best-effort.
func (a *LLMAdapter) ExtractTopics(ctx context.Context, text string) ([]string, error) {
	text = truncate(text, 1000)

	prompt := fmt.Sprintf(`Extract 3-5 main topics from this text. Return only the topics as a comma-separated list.

Text: %s

Topics:`, text)

	response, err := a.generate(ctx, prompt, 100, 0.3)
	if err != nil {
		return nil, err
	}
	return extract.ParseTopicList(response), nil
}

// TranscriptSummary is the structured result of summarizing a meeting
type TranscriptSummary struct {
	Summary      string   `json:"summary"`
	KeyDecisions []string `json:"key_decisions"`
	ActionItems  []string `json:"action_items"`
	Topics       []string `json:"topics"`
}

// SummarizeTranscript summarizes a meeting transcript into an executive
// summary, decisions, action items and topics
func (a *LLMAdapter) SummarizeTranscript(ctx context.Context, transcript string) (*TranscriptSummary, error) {
	transcript = truncate(transcript, 4000)

	prompt := fmt.Sprintf(`Summarize the following meeting transcript.

Provide:
1. Executive summary (2-3 sentences)
2. Key decisions made
3. Action items with assignees if mentioned
4. Main topics discussed

Transcript:
%s

Respond in JSON format:
{
    "summary": "...",
    "key_decisions": ["..."],
    "action_items": ["..."],
    "topics": ["..."]
}`, transcript)

	response, err := a.generate(ctx, prompt, 1000, 0.5)
	if err != nil {
		return nil, err
	}

	summary := &TranscriptSummary{}
	if jsonBody, ok := extractJSONObject(response); ok {
		if err := json.Unmarshal([]byte(jsonBody), summary); err == nil {
			return summary, nil
		}
	}
	return nil, errors.ErrLLMEmptyResponse
}

// generate runs a single-turn chat completion with retry and a bounded timeout
func (a *LLMAdapter) generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	var resp openai.ChatCompletionResponse
	var genErr error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			a.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", errors.NewContextTimeout("generate", a.timeout)
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		result, err := a.client.CreateChatCompletion(callCtx, req)
		cancel()
		if err == nil {
			resp, genErr = result, nil
			break
		}

		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", a.chatModel),
		)

		if ctx.Err() != nil {
			genErr = errors.NewContextTimeout("generate", a.timeout)
		} else {
			genErr = errors.NewLLMUnavailable("generate", a.chatModel, err)
		}
		// An expired caller context won't recover; don't burn the
		// remaining attempts on it
		if !errors.IsRetryable(genErr) {
			return "", genErr
		}
	}

	if genErr != nil {
		return "", genErr
	}
	if len(resp.Choices) == 0 {
		return "", errors.ErrLLMEmptyResponse
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// truncate caps prompt inputs without splitting a multibyte character
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// extractJSONObject pulls the first {...} block out of a chat answer that
// may wrap its JSON in prose or code fences
func extractJSONObject(response string) (string, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return response[start : end+1], true
}
