// Package suggest asks a remote chat completion service for tags describing a
// piece of text
package suggest

import (
	"bitwise74/docs-api/internal/metrics"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const systemPrompt = "You are a document tagging system. Extract 3-5 relevant keyword tags from the provided text. " +
	"Return ONLY a JSON array of strings with the tags. Nothing else. Make tags simple, one or two words maximum per tag."

type Config struct {
	// Base URL of an OpenAI compatible API, without /chat/completions.
	// Leaving it empty disables the client
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	// Content is cut to this many characters before being sent
	MaxCharacters  int
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.MaxCharacters <= 0 {
		cfg.MaxCharacters = 3000
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.cfg.BaseURL != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Suggest sends content once, no retries. Any failure is returned as an error
// and callers are expected to carry on without suggestions
func (c *Client) Suggest(ctx context.Context, content string) (tags []string, err error) {
	if !c.Enabled() || strings.TrimSpace(content) == "" {
		return []string{}, nil
	}

	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.SuggestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: Truncate(content, c.cfg.MaxCharacters)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request, %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request, %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tag suggestion api, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tag suggestion api returned %d: %s", resp.StatusCode, msg)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode tag suggestion response, %w", err)
	}

	if len(out.Choices) == 0 {
		return []string{}, nil
	}

	return ParseTags(out.Choices[0].Message.Content), nil
}

// Truncate cuts s to at most n characters
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}

	return s
}

var errNoArray = errors.New("no array found")

// ParseTags reads a JSON array of strings. Content that isn't valid JSON is
// scanned for the text between the first [ and the last ]
func ParseTags(content string) []string {
	content = strings.TrimSpace(content)

	var tags []string
	if err := json.Unmarshal([]byte(content), &tags); err == nil {
		return clean(tags)
	}

	zap.L().Debug("Suggestion not in JSON format, scanning for tags", zap.String("content", content))

	tags, err := scanTags(content)
	if err != nil {
		return []string{}
	}

	return tags
}

func scanTags(content string) ([]string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, errNoArray
	}

	var tags []string
	for _, tag := range strings.Split(content[start+1:end], ",") {
		tag = strings.NewReplacer(`"`, "", "'", "").Replace(tag)
		tags = append(tags, tag)
	}

	return clean(tags), nil
}

func clean(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}

	return out
}
