package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/foodstream/foodstream/models"
	"github.com/foodstream/foodstream/utils"
)

// ApologyReply is what the guest sees whenever the assistant pipeline
// fails. The cart is never touched on the failure path.
const ApologyReply = "Извините, я сейчас не могу ответить. Попробуйте ещё раз чуть позже или позовите официанта."

// ChatTurn is one prior message of the conversation passed as context.
type ChatTurn struct {
	Sender  string
	Content string
}

// AssistantReply is the structured model output: a guest-facing text plus
// an optional batch of cart actions, still raw so the executor can reject
// unknown tags itself.
type AssistantReply struct {
	Reply   string
	Actions json.RawMessage
}

// Assistant turns a guest message plus order context into a reply.
type Assistant interface {
	Chat(ctx context.Context, message string, history []ChatTurn, menu []models.MenuItem, order *models.Order) (*AssistantReply, error)
}

// OpenAIAssistant calls an OpenAI-compatible chat completions endpoint
// and asks for a strict JSON object {reply, actions}.
type OpenAIAssistant struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewOpenAIAssistantFromEnv returns nil when no API key is configured;
// the chat pipeline then degrades to the apology reply.
func NewOpenAIAssistantFromEnv() *OpenAIAssistant {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}
	base := os.Getenv("OPENAI_BASE_URL")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIAssistant{
		APIKey:  key,
		BaseURL: strings.TrimRight(base, "/"),
		Model:   model,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model          string                 `json:"model"`
	Messages       []chatCompletionMsg    `json:"messages"`
	Temperature    float64                `json:"temperature"`
	ResponseFormat map[string]interface{} `json:"response_format,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMsg `json:"message"`
	} `json:"choices"`
}

func (a *OpenAIAssistant) Chat(ctx context.Context, message string, history []ChatTurn, menu []models.MenuItem, order *models.Order) (*AssistantReply, error) {
	msgs := []chatCompletionMsg{{Role: "system", Content: buildSystemPrompt(menu, order)}}
	for _, turn := range history {
		role := "user"
		if turn.Sender == "bot" {
			role = "assistant"
		}
		msgs = append(msgs, chatCompletionMsg{Role: role, Content: turn.Content})
	}
	msgs = append(msgs, chatCompletionMsg{Role: "user", Content: message})

	body, err := json.Marshal(chatCompletionRequest{
		Model:          a.Model,
		Messages:       msgs,
		Temperature:    0.3,
		ResponseFormat: map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		utils.ErrorLogger.Printf("assistant request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		utils.ErrorLogger.Printf("assistant returned status %d", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrUpstreamUnavailable)
	}

	var parsed struct {
		Reply   string          `json:"reply"`
		Actions json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed reply", ErrUpstreamUnavailable)
	}
	if parsed.Reply == "" {
		return nil, fmt.Errorf("%w: malformed reply", ErrUpstreamUnavailable)
	}
	return &AssistantReply{Reply: parsed.Reply, Actions: parsed.Actions}, nil
}

func buildSystemPrompt(menu []models.MenuItem, order *models.Order) string {
	var b strings.Builder
	b.WriteString("You are a restaurant waiter assistant for guests at a table. ")
	b.WriteString("Answer briefly in the guest's language. ")
	b.WriteString("Respond as a strict JSON object: {\"reply\": string, \"actions\": [...]}. ")
	b.WriteString("Allowed action types: add_item, remove_item, update_quantity (with item_name and quantity), clear_cart. ")
	b.WriteString("Only use items from the menu below; never invent items or prices.\n\nMenu:\n")
	for _, item := range menu {
		if !item.IsActive {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s, %.2f", item.Name, item.Price))
		if item.Stock != nil {
			b.WriteString(fmt.Sprintf(" (stock: %d)", *item.Stock))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nOrder status: %s. Current total: %.2f.\n", order.Status, order.TotalPrice))
	if len(order.Items) > 0 {
		b.WriteString("Current cart:\n")
		for _, line := range order.Items {
			b.WriteString(fmt.Sprintf("- %s x%d\n", line.MenuItem.Name, line.Quantity))
		}
	}
	return b.String()
}
