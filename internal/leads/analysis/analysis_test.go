package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arq/internal/ai"
	"arq/internal/leads/models"
)

type completerFunc func(ctx context.Context, p ai.Prompt) (string, error)

func (f completerFunc) Complete(ctx context.Context, p ai.Prompt) (string, error) { return f(ctx, p) }

func TestAnalyze(t *testing.T) {
	var got ai.Prompt
	analyzer := New(completerFunc(func(_ context.Context, p ai.Prompt) (string, error) {
		got = p
		return `{"summary":"Wants a demo","intent":"Sales","priority":"HIGH","score":91}`, nil
	}))

	a, err := analyzer.Analyze(context.Background(), &models.Lead{
		Kind:    models.KindContact,
		Company: "Acme",
		Message: "Can we get a demo next week?",
	})
	require.NoError(t, err)
	assert.Equal(t, &models.Analysis{Summary: "Wants a demo", Intent: "sales", Priority: models.PriorityHigh, Score: 91}, a)

	assert.True(t, got.JSON)
	assert.Contains(t, got.User, "Company: Acme")
	assert.Contains(t, got.User, "Can we get a demo next week?")
}

func TestAnalyze_PropagatesProviderError(t *testing.T) {
	analyzer := New(completerFunc(func(context.Context, ai.Prompt) (string, error) {
		return "", errors.New("provider down")
	}))
	_, err := analyzer.Analyze(context.Background(), &models.Lead{Kind: models.KindPartner})
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	t.Run("strips code fences", func(t *testing.T) {
		a, err := Parse("```json\n{\"summary\":\"x\",\"priority\":\"low\",\"score\":10}\n```")
		require.NoError(t, err)
		assert.Equal(t, models.PriorityLow, a.Priority)
		assert.Equal(t, "other", a.Intent)
	})

	t.Run("clamps score and derives priority", func(t *testing.T) {
		a, err := Parse(`{"summary":"x","priority":"urgent","score":140}`)
		require.NoError(t, err)
		assert.Equal(t, 100, a.Score)
		assert.Equal(t, models.PriorityHigh, a.Priority)

		a, err = Parse(`{"summary":"x","score":55}`)
		require.NoError(t, err)
		assert.Equal(t, models.PriorityMedium, a.Priority)
	})

	t.Run("rejects non-json", func(t *testing.T) {
		_, err := Parse("I think this lead is great")
		assert.Error(t, err)
	})
}
