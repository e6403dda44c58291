package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teslashibe/go-walle/internal/httpc"
)

const (
	chatCompletionsURL = "https://api.openai.com/v1/chat/completions"
	defaultChatModel   = "gpt-4o-mini"
)

// ErrNoAPIKey is returned when building the OpenAI controller without a key.
var ErrNoAPIKey = errors.New("chat: OPENAI_API_KEY required")

// controlPrompt instructs the model to answer in the control-reply JSON
// shape. Kept strict so the directive parser sees only known record types.
const controlPrompt = `You are the control brain of a small two-wheeled rover with arms and a gripper.
Answer ONLY with a JSON object: {"speech": "...", "actions": [{"type": "...", "value": "..."}]}.
Allowed action types and values:
- movement: forward | backward | left | right | stop
- autonomy: start | stop
- gesture: wave | point | nod | salute | rest
- gripper: open | close | toggle
- arms: set:<left>:<right> | set_left:<v> | set_right:<v> | adjust:<dl>:<dr>  (positions in 0..1)
- tuning: speed_set:<v> | speed_adj:<d> | trim_set:<side>:<v> | trim_adj:<side>:<d> | trim_reset
- vision: describe | describe:<label>
- task: grab:<label>
- speech: <extra line to say>
Use an empty actions array when the user is only chatting.`

// OpenAI generates control replies with the chat completions API. On any
// failure it defers to the rule-based Fallback so the rover stays
// controllable without the network.
type OpenAI struct {
	apiKey   string
	model    string
	persona  string
	fallback Fallback
	logger   *slog.Logger
}

// NewOpenAI creates the model-backed controller. personaText is appended to
// the system prompt to steer the speech style.
func NewOpenAI(apiKey, model, personaText string, fallback Fallback, logger *slog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = defaultChatModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		apiKey:   apiKey,
		model:    model,
		persona:  personaText,
		fallback: fallback,
		logger:   logger.With("component", "chat.openai"),
	}, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateControlReply asks the model for a control reply, falling back to
// keyword rules when the call or the parse fails.
func (o *OpenAI) GenerateControlReply(userText string) (ControlReply, error) {
	reply, err := o.call(userText)
	if err != nil {
		o.logger.Warn("model call failed, using fallback", "error", err)
		return o.fallback.GenerateControlReply(userText)
	}
	return reply, nil
}

func (o *OpenAI) call(userText string) (ControlReply, error) {
	system := controlPrompt
	if o.persona != "" {
		system += "\nSpeaking style:\n" + o.persona
	}

	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: userText},
		},
		MaxTokens:      300,
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return ControlReply{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, chatCompletionsURL, bytes.NewReader(body))
	if err != nil {
		return ControlReply{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpc.Client.Do(req)
	if err != nil {
		return ControlReply{}, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ControlReply{}, fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ControlReply{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return ControlReply{}, fmt.Errorf("chat response had no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	var reply ControlReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return ControlReply{}, fmt.Errorf("model reply was not control JSON: %w", err)
	}
	return reply, nil
}
