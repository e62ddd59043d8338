package adapter

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     string
		ok       bool
	}{
		{"bare object", `{"summary": "x"}`, `{"summary": "x"}`, true},
		{"fenced", "Here you go:\n```json\n{\"summary\": \"x\"}\n```", `{"summary": "x"}`, true},
		{"prose around", `Sure! {"a": 1} Hope that helps.`, `{"a": 1}`, true},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`, true},
		{"no object", "I cannot do that.", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONObject(tc.response)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	multibyte := strings.Repeat("日", 10)

	got := truncate(multibyte, 4)
	if got != "日日日日" {
		t.Errorf("expected 4 runes, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a multibyte character")
	}

	if truncate("short", 100) != "short" {
		t.Error("expected input under the limit to pass through unchanged")
	}
}

// Integration tests require an OpenAI-compatible backend at localhost:4000

func TestLLMAdapter_Embed(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	adapter := NewLLMAdapter("http://localhost:4000", "", "gpt-4o-mini", "text-embedding-3-small", 30*time.Second)

	vector, err := adapter.Embed(context.Background(), "quarterly budget review")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vector) == 0 {
		t.Error("expected a non-empty embedding vector")
	}
}

func TestLLMAdapter_EmbedBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	adapter := NewLLMAdapter("http://localhost:4000", "", "gpt-4o-mini", "text-embedding-3-small", 30*time.Second)

	vectors, err := adapter.EmbedBatch(context.Background(), []string{"first text", "second text"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if len(vectors[0]) != len(vectors[1]) {
		t.Error("expected vectors of equal dimension")
	}
}

func TestLLMAdapter_SummarizeTranscript(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	adapter := NewLLMAdapter("http://localhost:4000", "", "gpt-4o-mini", "text-embedding-3-small", 30*time.Second)

	summary, err := adapter.SummarizeTranscript(context.Background(),
		"Alice: we should ship the dashboard on March 10. Bob: agreed, I'll own the rollout. Alice: also we need to finalize the Q3 budget by Friday.")
	if err != nil {
		t.Fatalf("SummarizeTranscript failed: %v", err)
	}
	if summary.Summary == "" {
		t.Error("expected a non-empty summary")
	}
}

func TestLLMAdapter_ExtractTopics(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	adapter := NewLLMAdapter("http://localhost:4000", "", "gpt-4o-mini", "text-embedding-3-small", 30*time.Second)

	topics, err := adapter.ExtractTopics(context.Background(),
		"The team reviewed the Q3 budget, discussed hiring two engineers, and set the launch date for the new dashboard.")
	if err != nil {
		t.Fatalf("ExtractTopics failed: %v", err)
	}
	if len(topics) == 0 {
		t.Error("expected at least one topic")
	}
	if len(topics) > 5 {
		t.Errorf("expected at most 5 topics, got %d", len(topics))
	}
}

func TestLLMAdapter_Answer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	adapter := NewLLMAdapter("http://localhost:4000", "", "gpt-4o-mini", "text-embedding-3-small", 30*time.Second)

	answer, err := adapter.Answer(context.Background(),
		"When is the launch?",
		"Meeting: planning sync\nThe launch date is March 10.")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer == "" {
		t.Error("expected a non-empty answer")
	}
}
