package ideas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// Refiner post-processes heuristic ideas, e.g. by asking a model for better
// titles. Implementations must degrade gracefully: returning the input
// unchanged is always acceptable.
type Refiner interface {
	Refine([]Idea) []Idea
}

// ChatClient mirrors the subset of the OpenAI client we need, so tests can
// stub it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMRefiner rewrites idea titles through an OpenAI-compatible endpoint, one
// request per batch. Any failure leaves the heuristic ideas untouched.
type LLMRefiner struct {
	Client  ChatClient
	Model   string
	Timeout time.Duration
}

const refinerSystemPrompt = "You rewrite content idea titles to be specific and engaging. " +
	"Given numbered titles, return the same count of rewritten titles, one per line, " +
	"numbered the same way. Keep each under 90 characters. Return nothing else."

// Refine asks the model for improved titles and applies them positionally.
// A malformed or partial response keeps the original titles for the
// unmatched entries.
func (r *LLMRefiner) Refine(in []Idea) []Idea {
	if r.Client == nil || r.Model == "" || len(in) == 0 {
		return in
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var b strings.Builder
	for i, idea := range in {
		fmt.Fprintf(&b, "%d. %s", i+1, strings.TrimSpace(idea.Title))
		if i < len(in)-1 {
			b.WriteString("\n")
		}
	}

	resp, err := r.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: refinerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("idea refinement failed, keeping heuristic titles")
		return in
	}
	if len(resp.Choices) == 0 {
		return in
	}

	lines := strings.Split(strings.TrimSpace(resp.Choices[0].Message.Content), "\n")
	out := make([]Idea, len(in))
	copy(out, in)
	for i := range out {
		if i >= len(lines) {
			break
		}
		title := cleanRefinedTitle(lines[i])
		if title != "" {
			out[i].Title = title
		}
	}
	return out
}

// cleanRefinedTitle strips list numbering and bullets the model may add.
func cleanRefinedTitle(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "0123456789")
	s = strings.TrimLeft(s, ".):- ")
	return strings.TrimSpace(s)
}
