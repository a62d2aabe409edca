package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-monitoring/api/pkg/config"
)

type fakeBackend struct {
	calls   []string
	results map[string][]error
	text    string
}

func (f *fakeBackend) Complete(ctx context.Context, model, system, prompt string) (string, error) {
	f.calls = append(f.calls, model)
	queue := f.results[model]
	if len(queue) == 0 {
		return f.text, nil
	}
	err := queue[0]
	f.results[model] = queue[1:]
	if err != nil {
		return "", err
	}
	return f.text, nil
}

func newTestClient(backend Backend, models []string) *Client {
	client := NewWithBackend(backend, config.AIConfig{
		Models:      models,
		MaxAttempts: 3,
		RetryBase:   time.Millisecond,
	}, nil)
	client.sleep = func(time.Duration) {}
	return client
}

func TestGenerateFirstModelSucceeds(t *testing.T) {
	backend := &fakeBackend{text: "plan", results: map[string][]error{}}
	client := newTestClient(backend, []string{"model-a", "model-b"})

	text, err := client.Generate(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "plan", text)
	assert.Equal(t, []string{"model-a"}, backend.calls)
}

func TestGenerateQuotaSkipsToNextModel(t *testing.T) {
	quota := &anthropic.Error{StatusCode: 429}
	backend := &fakeBackend{
		text:    "answer",
		results: map[string][]error{"model-a": {quota}},
	}
	client := newTestClient(backend, []string{"model-a", "model-b"})

	text, err := client.Generate(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	// quota failure must not burn retries on the exhausted model
	assert.Equal(t, []string{"model-a", "model-b"}, backend.calls)
}

func TestGenerateTransientErrorRetriesSameModel(t *testing.T) {
	transient := errors.New("connection reset")
	backend := &fakeBackend{
		text:    "answer",
		results: map[string][]error{"model-a": {transient, transient}},
	}
	client := newTestClient(backend, []string{"model-a"})

	text, err := client.Generate(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Equal(t, []string{"model-a", "model-a", "model-a"}, backend.calls)
}

func TestGenerateAllModelsExhausted(t *testing.T) {
	transient := errors.New("boom")
	backend := &fakeBackend{
		text: "never",
		results: map[string][]error{
			"model-a": {transient, transient, transient},
			"model-b": {transient, transient, transient},
		},
	}
	client := newTestClient(backend, []string{"model-a", "model-b"})

	_, err := client.Generate(context.Background(), "system", "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, transient)
	assert.Len(t, backend.calls, 6)
}

func TestGenerateNoModels(t *testing.T) {
	client := newTestClient(&fakeBackend{}, nil)
	_, err := client.Generate(context.Background(), "system", "prompt")
	require.Error(t, err)
}
