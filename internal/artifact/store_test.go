package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestSaveAndReadAudio(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := store.SaveAudio("item-1", []byte("RIFF....WAVEfmt "), "audio/wav")
	require.NoError(t, err)
	assert.Contains(t, path, "audio_item-1.wav")

	data, err := store.ReadAudio(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF....WAVEfmt "), data)
}

func TestSaveAndReadTranscript(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := store.SaveTranscript("item-1", "hello world")
	require.NoError(t, err)
	assert.Contains(t, path, "transcript_item-1.txt")

	text, err := store.ReadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtForContentType(t *testing.T) {
	cases := map[string]string{
		"audio/wav":  ".wav",
		"audio/mpeg": ".mp3",
		"audio/ogg":  ".ogg",
		"audio/flac": ".flac",
		"audio/pcm":  ".pcm",
		"audio/weird": ".bin",
	}
	for contentType, want := range cases {
		assert.Equal(t, want, extForContentType(contentType))
	}
}
