package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Stemmed, s)

	s, err = ParseStrategy("Semantic")
	require.NoError(t, err)
	assert.Equal(t, Semantic, s)
	assert.True(t, s.UsesEmbeddings())

	_, err = ParseStrategy("neural")
	assert.Error(t, err)

	assert.False(t, Lexical.Analysis().Stopwords)
	assert.True(t, Stemmed.Analysis().Stemming)
	assert.False(t, Semantic.Analysis().Stemming)
}
