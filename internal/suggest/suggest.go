// Package suggest calls an OpenAI-compatible chat-completion endpoint
// to produce best-effort note enrichment suggestions.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"retronotes/internal/config"
	"retronotes/internal/errors"
	"retronotes/internal/note"
)

// Suggestions holds the parsed fields of a completion. Any field the
// model omitted stays at its zero value; partial results are normal.
type Suggestions struct {
	Title        string   `json:"title,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Improvements string   `json:"improvements,omitempty"`
}

// Empty reports whether no field was parsed at all.
func (s *Suggestions) Empty() bool {
	return s.Title == "" && len(s.Tags) == 0 && s.Summary == "" && s.Improvements == ""
}

// Tone is the model's read of a text's tone plus a matching emoji.
type Tone struct {
	Tone  string `json:"tone"`
	Emoji string `json:"emoji,omitempty"`
}

// Client talks to a chat-completion API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	logger     zerolog.Logger
}

// NewClient builds a suggestion client from config. An empty apiKey is
// allowed; Suggest then fails with SUGGESTION_UNAVAILABLE.
func NewClient(cfg *config.Config, apiKey string, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.SuggestionTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.SuggestionBaseURL, "/"),
		model:      cfg.SuggestionModel,
		apiKey:     apiKey,
		logger:     logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = "You are a note-taking assistant. Given a note, reply with suggestions " +
	"using exactly these labeled lines: 'Title: ', 'Tags: ' (comma separated), " +
	"'Summary: ', and 'Improvements: '. Omit a line if you have nothing to suggest."

const tonePrompt = "You are a note-taking assistant. Describe the tone of the given text " +
	"in one or two words on a 'Tone: ' line and suggest one matching emoji on an " +
	"'Emoji: ' line."

// Suggest requests enrichment for a note. It never blocks editing;
// every failure here is recoverable by the caller.
func (c *Client) Suggest(ctx context.Context, n *note.Note) (*Suggestions, error) {
	prompt := fmt.Sprintf("Note title: %s\n\nNote content:\n%s", n.Title, n.PlainText())
	content, err := c.complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	result := Parse(content)
	c.logger.Debug().
		Str("note_id", n.ID).
		Bool("empty", result.Empty()).
		Msg("suggestion response parsed")
	return result, nil
}

// DetectTone asks the model for the tone of a piece of text and an
// emoji to go with it. Shares the suggestion endpoint and error
// handling; an unconfigured key fails the same recoverable way.
func (c *Client) DetectTone(ctx context.Context, text string) (*Tone, error) {
	prompt := "Analyze the tone of this text and suggest an appropriate emoji:\n" + text
	content, err := c.complete(ctx, tonePrompt, prompt)
	if err != nil {
		return nil, err
	}

	result := ParseTone(content)
	c.logger.Debug().
		Str("tone", result.Tone).
		Msg("tone response parsed")
	return result, nil
}

// complete runs one chat completion and returns the first choice's
// message content.
func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.NewSuggestionUnavailable()
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.NewSuggestionRequest(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewSuggestionRequest(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.NewSuggestionRequest(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewSuggestionRequest(
			fmt.Errorf("endpoint returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errors.NewSuggestionRequest(fmt.Errorf("malformed response: %w", err))
	}
	if parsed.Error != nil {
		return "", errors.NewSuggestionRequest(fmt.Errorf("endpoint error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", errors.NewSuggestionRequest(fmt.Errorf("response contained no choices"))
	}

	return parsed.Choices[0].Message.Content, nil
}
