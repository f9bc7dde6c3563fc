package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultCache(t *testing.T) {
	c := NewResultCache()

	_, ok := c.Get("abc")
	assert.False(t, ok)

	c.Put("abc", ExtractionResult{Text: "hello", Method: "pdf-text"})
	res, ok := c.Get("abc")
	assert.True(t, ok)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, 1, c.Len())

	// empty keys are ignored rather than cached
	c.Put("", ExtractionResult{Text: "x"})
	assert.Equal(t, 1, c.Len())
}
