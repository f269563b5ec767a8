package nlp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"casenote-nlp/internal/domain"
	"casenote-nlp/internal/llm"
)

func offlineOptions() Options {
	opts := DefaultOptions()
	opts.EnableNeuralSentiment = false
	opts.EnableNeuralDomains = false
	return opts
}

func TestHeuristicSentimentIsDeterministic(t *testing.T) {
	lex := DefaultLexicon()
	text := "client was agitated and frustrated, showed aggressive behavior"
	first := HeuristicSentiment(lex, text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, HeuristicSentiment(lex, text))
	}
	assert.Equal(t, domain.SentimentNegative, first.Label)
	assert.Equal(t, -1, first.Score)
	assert.Equal(t, -0.5, first.Polarity)
	assert.Equal(t, 0.5, first.Subjectivity)
}

func TestHeuristicSentimentLabels(t *testing.T) {
	lex := DefaultLexicon()
	cases := []struct {
		text string
		want domain.SentimentLabel
		pol  float64
	}{
		{"sad and withdrawn today", domain.SentimentNegative, -0.5},
		{"calm and friendly", domain.SentimentPositive, 0.5},
		{"calm but upset", domain.SentimentNeutral, 0},
		{"ate lunch", domain.SentimentNeutral, 0},
	}
	for _, tc := range cases {
		got := HeuristicSentiment(lex, tc.text)
		assert.Equal(t, tc.want, got.Label, tc.text)
		assert.Equal(t, tc.pol, got.Polarity, tc.text)
	}
}

func TestScorePolarity(t *testing.T) {
	lex := DefaultLexicon()

	pol, subj := ScorePolarity(lex, "nothing matches here")
	assert.Zero(t, pol)
	assert.Zero(t, subj)

	pol, _ = ScorePolarity(lex, "happy")
	assert.InDelta(t, 0.8, pol, 1e-9)

	neg, _ := ScorePolarity(lex, "not happy")
	assert.InDelta(t, -0.4, neg, 1e-9)

	very, _ := ScorePolarity(lex, "very calm")
	assert.InDelta(t, 0.39, very, 1e-9)

	capped, _ := ScorePolarity(lex, "extremely excellent")
	assert.Equal(t, 1.0, capped)
}

func TestSentimentClassifierScenarioWithoutModel(t *testing.T) {
	c := NewSentimentClassifier(nil, offlineOptions(), zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		text string
		want []domain.SentimentLabel
	}{
		{"Client appeared calm and cooperative, attentive during group therapy", []domain.SentimentLabel{domain.SentimentPositive}},
		{"Client was agitated and frustrated, showed aggressive behavior", []domain.SentimentLabel{domain.SentimentNegative}},
		{"Client maintained stable mood, followed routines", []domain.SentimentLabel{domain.SentimentNeutral, domain.SentimentPositive}},
	}
	for _, tc := range cases {
		got := c.Classify(ctx, Normalize(tc.text))
		assert.Contains(t, tc.want, got.Label, tc.text)
		assert.Equal(t, TierLexicalSentiment, got.Tier)
		assert.Nil(t, got.Confidence)
	}
}

func TestSentimentClassifierFallsToHeuristicWhenLexicalDisabled(t *testing.T) {
	opts := offlineOptions()
	opts.EnableLexicalSentiment = false
	c := NewSentimentClassifier(nil, opts, zap.NewNop())

	got := c.Classify(context.Background(), "client was sad")
	assert.Equal(t, TierHeuristic, got.Tier)
	assert.Equal(t, domain.SentimentNegative, got.Label)
}

func TestSentimentClassifierNeuralTier(t *testing.T) {
	mock := &llm.MockClient{Response: "```json\n{\"scores\":[{\"label\":\"POSITIVE\",\"score\":0.92},{\"label\":\"NEGATIVE\",\"score\":0.08}]}\n```"}
	opts := DefaultOptions()
	opts.Client = mock
	c := NewSentimentClassifier(nil, opts, zap.NewNop())

	got := c.Classify(context.Background(), "client was cheerful")
	assert.Equal(t, TierNeuralSentiment, got.Tier)
	assert.Equal(t, domain.SentimentPositive, got.Label)
	assert.Equal(t, 1, got.Score)
	assert.InDelta(t, 0.92, got.Polarity, 1e-9)
	assert.Equal(t, 0.5, got.Subjectivity)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.92, *got.Confidence, 1e-9)
	require.Equal(t, 1, mock.Calls())
	assert.True(t, strings.HasSuffix(mock.Prompts[0], "client was cheerful"))
}

func TestSentimentClassifierNeuralBelowFloorIsNeutral(t *testing.T) {
	mock := &llm.MockClient{Response: `{"scores":[{"label":"NEGATIVE","score":0.55},{"label":"POSITIVE","score":0.45}]}`}
	opts := DefaultOptions()
	opts.Client = mock
	opts.ConfidenceFloor = 0.6
	c := NewSentimentClassifier(nil, opts, zap.NewNop())

	got := c.Classify(context.Background(), "client ate lunch")
	assert.Equal(t, domain.SentimentNeutral, got.Label)
	assert.Zero(t, got.Polarity)
	assert.Equal(t, 0, got.Score)
}

func TestSentimentClassifierNeuralTruncatesInput(t *testing.T) {
	mock := &llm.MockClient{Response: `{"scores":[{"label":"NEGATIVE","score":0.9}]}`}
	opts := DefaultOptions()
	opts.Client = mock
	opts.TokenLimit = 3
	c := NewSentimentClassifier(nil, opts, zap.NewNop())

	c.Classify(context.Background(), "one two three four five")
	require.Equal(t, 1, mock.Calls())
	assert.True(t, strings.HasSuffix(mock.Prompts[0], "one two three"))
}

func TestSentimentClassifierFallsBackOnModelErrors(t *testing.T) {
	cases := []struct {
		name string
		mock *llm.MockClient
	}{
		{"invalid json", &llm.MockClient{Response: "I think it is positive"}},
		{"empty scores", &llm.MockClient{Response: `{"scores":[]}`}},
		{"transport error", &llm.MockClient{Err: errors.New("connection refused")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Client = tc.mock
			c := NewSentimentClassifier(nil, opts, zap.NewNop())

			got := c.Classify(context.Background(), "client was agitated")
			assert.Equal(t, TierLexicalSentiment, got.Tier)
			assert.Equal(t, domain.SentimentNegative, got.Label)
		})
	}
}

func TestSentimentClassifierDisabledNeuralNeverCallsModel(t *testing.T) {
	mock := &llm.MockClient{Response: `{"scores":[{"label":"POSITIVE","score":1}]}`}
	opts := DefaultOptions()
	opts.Client = mock
	opts.EnableNeuralSentiment = false
	c := NewSentimentClassifier(nil, opts, zap.NewNop())

	c.Classify(context.Background(), "client was calm")
	assert.Equal(t, 0, mock.Calls())

	st := c.Status(context.Background())
	require.Len(t, st, 3)
	assert.False(t, st[0].Available)
	assert.Contains(t, st[0].Reason, "disabled")
}

type slowClient struct{}

func (slowClient) Generate(ctx context.Context, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(5 * time.Second):
		return `{"scores":[{"label":"POSITIVE","score":1}]}`, nil
	}
}

func TestSentimentClassifierTimeoutFallsBack(t *testing.T) {
	opts := DefaultOptions()
	opts.Client = slowClient{}
	opts.TierTimeout = 20 * time.Millisecond
	c := NewSentimentClassifier(nil, opts, zap.NewNop())

	start := time.Now()
	got := c.Classify(context.Background(), "client was upset")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, TierLexicalSentiment, got.Tier)
}
