package jsonutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, map[string]interface{}{"title": "Buy 1 & Get 1", "points": 400})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"points\": 400,\n  \"title\": \"Buy 1 & Get 1\"\n}\n", buf.String())
}

func TestWriteUnsupported(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, make(chan int)))
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", PrettyJSON(`{"a":1}`))
	assert.Equal(t, "not json", PrettyJSON("not json"))
}
