package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadText(t *testing.T) {
	inputs, err := Load(strings.NewReader("hello there\n\n  spaced out  \nlast line"), FormatText)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello there", "spaced out", "last line"}, inputs)
}

func TestLoadJSONL_RecognizedKeys(t *testing.T) {
	data := strings.Join([]string{
		`{"text": "first"}`,
		`{"prompt": "second"}`,
		`{"sentence": "third"}`,
		``,
	}, "\n")

	inputs, err := Load(strings.NewReader(data), FormatJSONL)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, inputs)
}

func TestLoadJSONL_MissingKeyErrors(t *testing.T) {
	_, err := Load(strings.NewReader(`{"other": "nope"}`), FormatJSONL)
	assert.Error(t, err)
}

func TestLoadCSV_SkipsHeader(t *testing.T) {
	data := "text,note\nhello,ignored\nworld,also ignored\n"
	inputs, err := Load(strings.NewReader(data), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, inputs)
}

func TestLoadCSV_NoHeaderDetected(t *testing.T) {
	data := "hello,foo\nworld,bar\n"
	inputs, err := Load(strings.NewReader(data), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, inputs)
}

func TestLoad_UnknownFormat(t *testing.T) {
	_, err := Load(strings.NewReader(""), Format("xml"))
	assert.Error(t, err)
}
