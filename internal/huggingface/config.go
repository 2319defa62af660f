// Package huggingface classifies text with a model served by the Hugging
// Face inference API.
package huggingface

import "errors"

// DefaultModel is a 7-label English emotion classifier
// (anger, disgust, fear, joy, neutral, sadness, surprise).
const DefaultModel = "j-hartmann/emotion-english-distilroberta-base"

// ErrMissingToken is returned when no inference API token is configured.
var ErrMissingToken = errors.New("missing HF_API_TOKEN environment variable")

// Config holds inference API configuration.
type Config struct {
	Token string
	Model string
}
