package emotion_test

import (
	"math"
	"testing"

	"github.com/book-expert/voicefx/internal/emotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	t.Parallel()

	scores, err := emotion.FromMap(map[string]float64{
		"happiness": 80,
		"anger":     10,
		"fear":      95,
	})
	require.NoError(t, err)

	assert.Equal(t, emotion.Scores{Happiness: 80, Sadness: 0, Anger: 10}, scores)
	assert.Zero(t, scores.Score(emotion.Label("fear")))
}

func TestFromMap_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	testCases := []map[string]float64{
		{"happiness": -1},
		{"sadness": 100.5},
		{"anger": math.NaN()},
		{"anger": math.Inf(1)},
	}

	for _, values := range testCases {
		_, err := emotion.FromMap(values)
		require.ErrorIs(t, err, emotion.ErrScoreRange, "values %v", values)
	}
}

func TestFromMap_NilIsNeutral(t *testing.T) {
	t.Parallel()

	scores, err := emotion.FromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, emotion.Scores{}, scores)
}
