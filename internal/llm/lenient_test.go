package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverJSONObject_PlainObject(t *testing.T) {
	out, err := RecoverJSONObject(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
}

func TestRecoverJSONObject_CodeFence(t *testing.T) {
	out, err := RecoverJSONObject("```json\n{\"a\": 1}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
}

func TestRecoverJSONObject_SurroundingProse(t *testing.T) {
	out, err := RecoverJSONObject("Sure! Here is the data:\n{\"a\": {\"b\": 2}}\nLet me know if you need more.")
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 2}}`, out)
}

func TestRecoverJSONObject_BracesInsideStrings(t *testing.T) {
	out, err := RecoverJSONObject(`{"note": "years {of} experience", "esc": "quote \" and brace }"}`)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "years {of} experience", m["note"])
}

func TestRecoverJSONObject_NoObject(t *testing.T) {
	_, err := RecoverJSONObject("I cannot read this invoice.")
	assert.Error(t, err)
}

func TestRecoverJSONObject_Unterminated(t *testing.T) {
	_, err := RecoverJSONObject(`{"a": 1`)
	assert.Error(t, err)
}
