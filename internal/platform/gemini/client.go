// Package gemini implements suggest.Predictor on top of the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/atinyakov/SymbolBoard/internal/suggest"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-1.5-flash"

// DefaultTimeout bounds one prediction call.
const DefaultTimeout = 10 * time.Second

// MaxWords caps the number of words taken from a response.
const MaxWords = 8

const systemPrompt = `You help a person who communicates with picture cards.
Given the conversation so far, oldest first, reply with a JSON object
{"words": [...]} holding up to 8 single lowercase English words the person
is most likely to say next, most likely first.`

// Client handles communication with the Gemini API.
type Client struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

var _ suggest.Predictor = (*Client)(nil)

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return &Client{client: client, model: model, timeout: DefaultTimeout}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

type requestData struct {
	History []turn `json:"history"`
}

type turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type responseData struct {
	Words []string `json:"words"`
}

// Predict asks the model for the next words of the conversation. history is
// expected in ascending timestamp order.
func (c *Client) Predict(ctx context.Context, history []models.Utterance) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(buildRequest(history))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(string(body)))
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return nil, err
	}
	return parseWords(text)
}

func buildRequest(history []models.Utterance) requestData {
	req := requestData{History: make([]turn, 0, len(history))}
	for _, u := range history {
		speaker := "partner"
		if u.IsLocal {
			speaker = "user"
		}
		req.History = append(req.History, turn{Speaker: speaker, Text: u.Text})
	}
	return req
}

// parseWords accepts either {"words": [...]} or a bare JSON array.
func parseWords(text string) ([]string, error) {
	var data responseData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		var words []string
		if err2 := json.Unmarshal([]byte(text), &words); err2 != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		data.Words = words
	}

	out := make([]string, 0, len(data.Words))
	for _, w := range data.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		out = append(out, w)
		if len(out) == MaxWords {
			break
		}
	}
	return out, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined strings.Builder
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			combined.WriteString(string(text))
		}
		if combined.Len() > 0 {
			return combined.String(), nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
