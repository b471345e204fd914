// Package artifact persists the audio and transcript byte payloads a run
// item produces, on local disk, under the naming convention from spec §6
// (audio_{item_id}.{ext}, transcript_{item_id}.txt). Grounded on the
// teacher's own filesystem idiom for model/output paths (cmd/whisper-control's
// os.MkdirAll + filepath.Join + os.Create-to-temp-then-rename pattern).
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store writes and reads run-item artifacts under a root directory split
// into audio/ and transcripts/ subdirectories.
type Store struct {
	root string
}

// New creates a Store rooted at dir, creating the audio/ and transcripts/
// subdirectories if they don't exist.
func New(dir string) (*Store, error) {
	for _, sub := range []string{"audio", "transcripts"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("artifact: create %s dir: %w", sub, err)
		}
	}
	return &Store{root: dir}, nil
}

// SaveAudio writes audio bytes for itemID, inferring the file extension
// from contentType, and returns the path written.
func (s *Store) SaveAudio(itemID string, data []byte, contentType string) (string, error) {
	name := fmt.Sprintf("audio_%s%s", itemID, extForContentType(contentType))
	path := filepath.Join(s.root, "audio", name)
	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("artifact: save audio: %w", err)
	}
	return path, nil
}

// SaveTranscript writes transcript text for itemID and returns the path written.
func (s *Store) SaveTranscript(itemID, text string) (string, error) {
	name := fmt.Sprintf("transcript_%s.txt", itemID)
	path := filepath.Join(s.root, "transcripts", name)
	if err := writeAtomic(path, []byte(text)); err != nil {
		return "", fmt.Errorf("artifact: save transcript: %w", err)
	}
	return path, nil
}

// ReadAudio loads a previously saved audio artifact.
func (s *Store) ReadAudio(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: read audio: %w", err)
	}
	return data, nil
}

// ReadTranscript loads a previously saved transcript artifact.
func (s *Store) ReadTranscript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("artifact: read transcript: %w", err)
	}
	return string(data), nil
}

// writeAtomic writes to a temp file in the same directory then renames it
// into place, avoiding partial writes if the process is killed mid-write.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func extForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "wav"):
		return ".wav"
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	case strings.Contains(contentType, "flac"):
		return ".flac"
	case strings.Contains(contentType, "pcm"):
		return ".pcm"
	default:
		return ".bin"
	}
}
