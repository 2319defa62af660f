package huggingface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/justestif/go-spotify-moodify/internal/mood"
)

const (
	baseURL   = "https://api-inference.huggingface.co"
	userAgent = "moodify/1.0"
)

// Sentinel errors.
var (
	// ErrUnauthorized is returned when the API token is rejected.
	ErrUnauthorized = errors.New("huggingface: API token rejected")

	// ErrModelLoading is returned when the model is still loading after retries.
	ErrModelLoading = errors.New("huggingface: model is loading")

	// ErrRateLimited is returned when the rate limit is exceeded after retries.
	ErrRateLimited = errors.New("huggingface: rate limit exceeded")
)

type request struct {
	Inputs  []string `json:"inputs"`
	Options options  `json:"options"`
}

type options struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// Client is an inference API client. It implements mood.Inference.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient creates a client from the provided configuration.
func NewClient(cfg *Config) *Client {
	return newClient(baseURL, cfg, time.Second)
}

func newClient(base string, cfg *Config, retryWait time.Duration) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(60*time.Second).
		SetAuthToken(cfg.Token).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(3).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(4 * retryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return false
			}
			return r.StatusCode() == http.StatusServiceUnavailable ||
				r.StatusCode() == http.StatusTooManyRequests
		})

	return &Client{http: rc, model: model}
}

// Classify returns the label scores for each text, in input order.
func (c *Client) Classify(ctx context.Context, texts []string) ([][]mood.Score, error) {
	if len(texts) == 0 {
		return [][]mood.Score{}, nil
	}

	var out [][]mood.Score
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(request{
			Inputs:  texts,
			Options: options{WaitForModel: true},
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/models/" + c.model)
	if err != nil {
		return nil, fmt.Errorf("huggingface: executing request: %w", err)
	}

	if resp.IsError() {
		switch resp.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, ErrUnauthorized
		case http.StatusServiceUnavailable:
			return nil, ErrModelLoading
		case http.StatusTooManyRequests:
			return nil, ErrRateLimited
		default:
			return nil, fmt.Errorf("huggingface: status %d: %s", resp.StatusCode(), apiErr.Error)
		}
	}

	if len(out) != len(texts) {
		return nil, fmt.Errorf("huggingface: got %d results for %d inputs", len(out), len(texts))
	}
	return out, nil
}
