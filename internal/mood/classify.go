package mood

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-moodify/internal/enrich"
)

// Defaults for NewClassifier.
const (
	DefaultBatchSize = 8
	DefaultTimeout   = 60 * time.Second
	// DefaultMaxChars keeps inputs well inside the model's 512-token window.
	DefaultMaxChars = 2000
)

// ErrUnavailable is returned when no inference backend is configured.
var ErrUnavailable = errors.New("mood classifier not available")

// Inference is a batch text-classification backend. For each input text it
// returns the model-native labels with their scores.
type Inference interface {
	Classify(ctx context.Context, texts []string) ([][]Score, error)
}

// ClassifiedTrack is an enriched track with its predicted emotion.
// Emotion is empty when classification failed; ClassifyError says why.
type ClassifiedTrack struct {
	enrich.EnrichedTrack
	Emotion       Emotion `json:"emotion,omitempty"`
	NativeLabel   string  `json:"native_label,omitempty"`
	Scores        []Score `json:"scores,omitempty"`
	ClassifyError string  `json:"classify_error,omitempty"`
}

// Classifier maps cleaned lyrics to emotions using an Inference backend.
type Classifier struct {
	inference Inference
	batchSize int
	timeout   time.Duration
	maxChars  int
	logger    *zap.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithBatchSize sets how many texts are sent per inference call.
func WithBatchSize(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithTimeout bounds each inference call.
func WithTimeout(d time.Duration) ClassifierOption {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxChars truncates each text before inference.
func WithMaxChars(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithClassifierLogger sets the logger.
func WithClassifierLogger(l *zap.Logger) ClassifierOption {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClassifier creates a classifier. A nil backend yields a classifier
// whose Available reports false.
func NewClassifier(inference Inference, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		inference: inference,
		batchSize: DefaultBatchSize,
		timeout:   DefaultTimeout,
		maxChars:  DefaultMaxChars,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether an inference backend is configured.
func (c *Classifier) Available() bool {
	return c != nil && c.inference != nil
}

// Classify returns one emotion per text. It fails on the first batch error.
func (c *Classifier) Classify(ctx context.Context, texts []string) ([]Emotion, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	labels := make([]Emotion, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))

		scores, err := c.runBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("classifying texts %d-%d: %w", start, end-1, err)
		}
		for _, s := range scores {
			top, ok := topScore(s)
			if !ok {
				labels = append(labels, "")
				continue
			}
			labels = append(labels, MapLabel(top.Label))
		}
	}
	return labels, nil
}

// ClassifyTracks labels every track that has clean lyrics; tracks without
// are left out of the result. A failing batch records its error on the
// tracks it contained and the remaining batches still run.
func (c *Classifier) ClassifyTracks(ctx context.Context, tracks []enrich.EnrichedTrack) ([]ClassifiedTrack, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	var out []ClassifiedTrack
	for _, t := range tracks {
		if t.CleanLyrics != "" {
			out = append(out, ClassifiedTrack{EnrichedTrack: t})
		}
	}

	for start := 0; start < len(out); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		end := min(start+c.batchSize, len(out))
		batch := out[start:end]

		texts := make([]string, len(batch))
		for i, t := range batch {
			texts[i] = t.CleanLyrics
		}

		scores, err := c.runBatch(ctx, texts)
		if err != nil {
			c.logger.Warn("mood batch failed",
				zap.Int("first", start),
				zap.Int("size", len(batch)),
				zap.Error(err),
			)
			for i := range batch {
				batch[i].ClassifyError = err.Error()
			}
			continue
		}

		for i := range batch {
			batch[i].Scores = scores[i]
			top, ok := topScore(scores[i])
			if !ok {
				batch[i].ClassifyError = "no scores returned"
				continue
			}
			batch[i].NativeLabel = top.Label
			batch[i].Emotion = MapLabel(top.Label)
		}
	}

	if out == nil {
		out = []ClassifiedTrack{}
	}
	return out, ctx.Err()
}

// runBatch sends one batch with its own timeout and checks the result shape.
func (c *Classifier) runBatch(ctx context.Context, texts []string) ([][]Score, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = truncate(t, c.maxChars)
	}

	batchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	scores, err := c.inference.Classify(batchCtx, inputs)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(inputs) {
		return nil, fmt.Errorf("inference returned %d results for %d texts", len(scores), len(inputs))
	}
	return scores, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
