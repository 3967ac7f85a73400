package internalerr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrappedSentinelsMatch(t *testing.T) {
	err := errors.Wrapf(ErrInvalidCorpus, "entry %q", "faq-1")
	assert.True(t, errors.Is(err, ErrInvalidCorpus))
	assert.False(t, errors.Is(err, ErrInvalidIndex))
	assert.Contains(t, err.Error(), "faq-1")
}
