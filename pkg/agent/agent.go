// Package agent is a thin client for the external recommendation agent
// service. The agent is an opaque HTTP endpoint: this client initializes a
// conversation session, sends a prompt assembled from the drink search
// results and the user's style preferences, and extracts the final
// recommendation text from the response.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/drinkscout/drinkscout/internal/logger"
	"github.com/drinkscout/drinkscout/pkg/query"
)

// promptDrinkLimit caps how many drinks enter the prompt; the full result
// set still comes back in the response.
const promptDrinkLimit = 3

// fallbackMessage is returned when the agent service fails; the drink list
// is still usable without the generated text.
const fallbackMessage = "抱歉，系統發生錯誤，可能是因為 LLM 服務呼叫太過頻繁，請稍後再試。如果持續發生，請聯絡開發者"

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RecommendRequest carries everything needed for one recommendation run.
type RecommendRequest struct {
	UserID      string
	SessionID   string
	Preferences []ChatMessage
	Drinks      []query.Drink
}

// Recommendation is the agent's answer plus the drinks it was shown.
type Recommendation struct {
	Message string        `json:"message"`
	Drinks  []query.Drink `json:"drinks"`
}

// Client talks to the agent service over a shared pooled HTTP client.
type Client struct {
	http    *http.Client
	baseURL string
	appName string
}

// NewClient creates an agent client. baseURL is the agent service root
// without a trailing slash.
func NewClient(httpClient *http.Client, baseURL, appName string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		appName: appName,
	}
}

// NewSessionID mints a fresh conversation session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Recommend runs one recommendation round: ensure the session exists, send
// the assembled prompt, and extract the final text. When the agent service
// fails, a canned apology is returned alongside the drinks instead of an
// error; the search result alone is still valuable to the caller.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (*Recommendation, error) {
	if req.SessionID == "" {
		req.SessionID = NewSessionID()
	}
	if req.UserID == "" {
		req.UserID = req.SessionID
	}

	prompt, err := buildPrompt(req.Preferences, req.Drinks)
	if err != nil {
		return nil, fmt.Errorf("build recommendation prompt: %w", err)
	}

	if err := c.EnsureSession(ctx, req.UserID, req.SessionID); err != nil {
		logger.WarnCtx(ctx, "agent session setup failed", logger.KeyError, err.Error())
		return &Recommendation{Message: fallbackMessage, Drinks: req.Drinks}, nil
	}

	raw, err := c.run(ctx, req.UserID, req.SessionID, ChatMessage{Role: "user", Content: prompt})
	if err != nil {
		logger.WarnCtx(ctx, "agent run failed", logger.KeyError, err.Error())
		return &Recommendation{Message: fallbackMessage, Drinks: req.Drinks}, nil
	}

	return &Recommendation{Message: extractRecommendation(raw), Drinks: req.Drinks}, nil
}

// EnsureSession makes sure the conversation session exists on the agent
// side, creating it when the lookup 404s.
func (c *Client) EnsureSession(ctx context.Context, userID, sessionID string) error {
	url := c.sessionURL(userID, sessionID)

	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		created, err := c.post(ctx, url, nil)
		if err != nil {
			return err
		}
		defer created.Body.Close()
		if created.StatusCode >= 300 {
			return fmt.Errorf("create agent session: unexpected status %d", created.StatusCode)
		}
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("lookup agent session: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// runPayload is the agent service's run request shape.
type runPayload struct {
	AppName    string     `json:"appName"`
	UserID     string     `json:"userId"`
	SessionID  string     `json:"sessionId"`
	NewMessage runMessage `json:"newMessage"`
	Streaming  bool       `json:"streaming"`
}

type runMessage struct {
	Parts []runPart `json:"parts"`
	Role  string    `json:"role"`
}

type runPart struct {
	Text string `json:"text"`
}

// runEvent is one element of the agent's event array response.
type runEvent struct {
	Content runMessage `json:"content"`
}

// run executes the agent app non-streaming and returns the text of the last
// event.
func (c *Client) run(ctx context.Context, userID, sessionID string, message ChatMessage) (string, error) {
	payload := runPayload{
		AppName:   c.appName,
		UserID:    userID,
		SessionID: sessionID,
		NewMessage: runMessage{
			Parts: []runPart{{Text: message.Content}},
			Role:  message.Role,
		},
		Streaming: false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode run payload: %w", err)
	}

	resp, err := c.post(ctx, c.baseURL+"/run", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("agent run: unexpected status %d", resp.StatusCode)
	}

	var events []runEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return "", fmt.Errorf("decode agent response: %w", err)
	}
	if len(events) == 0 {
		return "", fmt.Errorf("agent response carries no events")
	}

	last := events[len(events)-1]
	if len(last.Content.Parts) == 0 {
		return "", fmt.Errorf("agent response event carries no parts")
	}
	return last.Content.Parts[0].Text, nil
}

func (c *Client) sessionURL(userID, sessionID string) string {
	return fmt.Sprintf("%s/apps/%s/users/%s/sessions/%s", c.baseURL, c.appName, userID, sessionID)
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", url, err)
	}
	return resp, nil
}

// buildPrompt assembles the recommendation prompt from the user's style
// preferences and the top drinks, trimmed to keep token usage down.
func buildPrompt(preferences []ChatMessage, drinks []query.Drink) (string, error) {
	trimmed := drinks
	if len(trimmed) > promptDrinkLimit {
		trimmed = trimmed[:promptDrinkLimit]
	}

	type promptDrink struct {
		Name        string `json:"name"`
		StoreName   string `json:"store_name"`
		Description string `json:"description"`
	}
	list := make([]promptDrink, 0, len(trimmed))
	for _, d := range trimmed {
		list = append(list, promptDrink{
			Name:        d.Name,
			StoreName:   d.StoreName,
			Description: d.Description,
		})
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(preferences))
	for _, p := range preferences {
		lines = append(lines, fmt.Sprintf("%s: %s", p.Role, p.Content))
	}

	return fmt.Sprintf(`
# 使用者的回應風格偏好
%s

# 飲料清單
%s

請依據以上資料，推薦適合的飲料給使用者。
`, strings.Join(lines, "\n"), string(encoded)), nil
}

// extractRecommendation pulls the final recommendation text out of the
// agent's raw answer. The agent usually emits a JSON state document, but
// sometimes wraps the text in triple quotes or returns it bare.
func extractRecommendation(raw string) string {
	var wrapper struct {
		State struct {
			FinalRecommendation string `json:"final_recommendation"`
		} `json:"state"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err == nil && wrapper.State.FinalRecommendation != "" {
		return wrapper.State.FinalRecommendation
	}

	for _, quote := range []string{`"""`, "'''"} {
		if parts := strings.Split(raw, quote); len(parts) >= 3 {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(raw)
}
