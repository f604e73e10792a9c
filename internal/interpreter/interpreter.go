// Package interpreter turns free text into task candidates with a Gemini
// model.
package interpreter

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/keyring"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/models"
)

// ErrNoAPIKeys is returned when neither the keyring nor the environment
// provides an API key.
var ErrNoAPIKeys = stderrors.New("no interpreter API key configured")

type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	keys       []string
	location   *time.Location
}

type Option func(*Client)

// WithBaseURL points the client at another Gemini API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLocation sets the zone the user's wall-clock phrases refer to.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.location = loc }
}

// New returns a client that tries keys in order on every request.
func New(keys []string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: constants.InterpreterTimeout},
		model:      constants.DefaultInterpreterModel,
		keys:       keys,
		location:   time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadKeys collects API keys from the keyring followed by FLOWMIND_API_KEY,
// FLOWMIND_API_KEY_2, FLOWMIND_API_KEY_3 and so on until the first gap.
func LoadKeys() []string {
	var keys []string
	if key, err := keyring.GetAPIKey(); err == nil && key != "" {
		keys = append(keys, key)
	} else if err != nil && !stderrors.Is(err, keyring.ErrNotFound) {
		logger.Debug("Keyring lookup failed", "error", err)
	}
	return append(keys, envKeys(os.Getenv)...)
}

func envKeys(getenv func(string) string) []string {
	var keys []string
	if key := getenv(constants.APIKeyEnvVar); key != "" {
		keys = append(keys, key)
	}
	for i := 2; ; i++ {
		key := getenv(constants.APIKeyEnvVar + "_" + strconv.Itoa(i))
		if key == "" {
			break
		}
		keys = append(keys, key)
	}
	return keys
}

// Interpret asks the model for candidates described by text. Entries with a
// missing field or an unparsable instant are dropped.
func (c *Client) Interpret(ctx context.Context, text string, now time.Time) ([]models.Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrNoCandidates
	}
	if len(c.keys) == 0 {
		return nil, ErrNoAPIKeys
	}

	prompt := c.prompt(text, now)
	var lastErr error
	for i, key := range c.keys {
		raw, err := c.generate(ctx, key, prompt)
		if err == nil {
			return parseCandidates(raw)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Interpreter request failed, trying next key", "key", i+1, "of", len(c.keys), "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("all %d API keys failed: %w", len(c.keys), lastErr)
}

var candidateSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":     {Type: genai.TypeString},
			"startTime": {Type: genai.TypeString},
			"endTime":   {Type: genai.TypeString},
		},
		Required:         []string{"title", "startTime", "endTime"},
		PropertyOrdering: []string{"title", "startTime", "endTime"},
	},
}

func (c *Client) prompt(text string, now time.Time) string {
	local := now.In(c.location)
	return fmt.Sprintf(`You convert natural-language requests into one or more tasks in JSON.
- Current date and time: %s (UTC), %s local (%s).
- Times the user mentions are in the local zone %s. Convert them to UTC.
- startTime and endTime MUST be ISO 8601 UTC strings ending in 'Z'.
- When no duration or end time is given, assume one hour.
- When a duration or range is given, use it to compute endTime.
- When no year is given, assume the current year.
- Always return a JSON array, even for a single task.
Request: %q`,
		now.UTC().Format(time.RFC3339),
		local.Format(constants.DateTimeFormat),
		local.Format("Monday"),
		c.location.String(),
		text,
	)
}

func (c *Client) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   candidateSchema,
	}
}

// generate runs one generateContent call with key and returns the response
// text. A client is built per key since the key is fixed at construction.
func (c *Client) generate(ctx context.Context, key, prompt string) (string, error) {
	timeout := constants.InterpreterTimeout
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: c.baseURL,
			Timeout: &timeout,
		},
	})
	if err != nil {
		return "", fmt.Errorf("creating Gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config())
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("interpreter returned no content")
	}
	return text, nil
}

type rawCandidate struct {
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func parseCandidates(raw string) ([]models.Candidate, error) {
	var entries []rawCandidate
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrNoCandidates, err)
	}

	var out []models.Candidate
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" || e.StartTime == "" || e.EndTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, e.StartTime)
		if err != nil {
			logger.Debug("Dropping candidate with bad start", "title", title, "start", e.StartTime)
			continue
		}
		end, err := time.Parse(time.RFC3339, e.EndTime)
		if err != nil {
			logger.Debug("Dropping candidate with bad end", "title", title, "end", e.EndTime)
			continue
		}
		out = append(out, models.Candidate{Title: title, StartTime: start, EndTime: end})
	}
	if len(out) == 0 {
		return nil, errors.ErrNoCandidates
	}
	return out, nil
}
