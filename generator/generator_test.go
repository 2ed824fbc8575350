package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeoutPassesText(t *testing.T) {
	g := WithTimeout(Func(func(ctx context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	}), "fake", time.Second)

	got, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", got)
}

func TestWithTimeoutWrapsFailure(t *testing.T) {
	cause := errors.New("quota exhausted")
	g := WithTimeout(Func(func(ctx context.Context, prompt string) (string, error) {
		return "", cause
	}), "fake", time.Second)

	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperrors.CodeUpstream, apperrors.CodeOf(err))
}

func TestWithTimeoutDeadline(t *testing.T) {
	g := WithTimeout(Func(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), "fake", 20*time.Millisecond)

	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var se *apperrors.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, true, se.Context["timeout"])
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.Config{Generator: config.Generator{Provider: "gpt"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfig, apperrors.CodeOf(err))
}
