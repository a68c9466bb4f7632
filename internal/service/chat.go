package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/pantrychef/backend/internal/apperr"
	"github.com/pageza/pantrychef/backend/internal/logging"
	"github.com/pageza/pantrychef/backend/internal/matching"
)

// ChatResponse is the answer to one chat message.
type ChatResponse struct {
	Reply       string               `json:"reply"`
	Suggestions []matching.Candidate `json:"suggested_recipes"`
	// Degraded is set when Reply was not generated by the model.
	Degraded bool `json:"degraded,omitempty"`
}

// ChatOptions tune ChatService.
type ChatOptions struct {
	// AllowRawFallback returns the shortlist with a canned reply when
	// generation fails, instead of failing the request.
	AllowRawFallback bool
}

// ChatService answers a message by shortlisting recipes and asking the
// model to phrase a recommendation.
type ChatService struct {
	recommender Recommender
	generator   TextGenerator
	opts        ChatOptions
}

// NewChatService wires the service. generator may be nil only when
// AllowRawFallback is set.
func NewChatService(recommender Recommender, generator TextGenerator, opts ChatOptions) *ChatService {
	return &ChatService{recommender: recommender, generator: generator, opts: opts}
}

// Chat recommends up to k recipes for message and generates a reply.
func (s *ChatService) Chat(ctx context.Context, message string, k int) (*ChatResponse, error) {
	rec, err := s.recommender.Recommend(ctx, message, k)
	if err != nil {
		return nil, err
	}

	prompt := matching.RenderPrompt(rec.Shortlist, rec.Pantry, rec.Query)

	reply, err := s.generate(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("chat cancelled: %w", ctxErr)
		}
		if !s.opts.AllowRawFallback {
			return nil, apperr.Provider("llm", err)
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("generation failed, returning raw shortlist")
		return &ChatResponse{
			Reply:       fallbackReply(rec.Shortlist),
			Suggestions: rec.Shortlist,
			Degraded:    true,
		}, nil
	}

	return &ChatResponse{Reply: reply, Suggestions: rec.Shortlist}, nil
}

func (s *ChatService) generate(ctx context.Context, prompt string) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("no text generator configured")
	}
	return s.generator.Generate(ctx, prompt)
}

// fallbackReply lists the shortlist without model phrasing.
func fallbackReply(shortlist []matching.Candidate) string {
	if len(shortlist) == 0 {
		return "No saved recipes yet. Add a recipe and ask again."
	}
	var ready, other []string
	for _, c := range shortlist {
		if c.Feasible {
			ready = append(ready, c.Recipe.Name)
		} else {
			other = append(other, fmt.Sprintf("%s (missing %s)", c.Recipe.Name, strings.Join(c.Missing, ", ")))
		}
	}
	var parts []string
	if len(ready) > 0 {
		parts = append(parts, "You can cook now: "+strings.Join(ready, ", ")+".")
	}
	if len(other) > 0 {
		parts = append(parts, "Close matches: "+strings.Join(other, "; ")+".")
	}
	return strings.Join(parts, " ")
}
