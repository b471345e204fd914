package audioprobe

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

func isWAV(contentType string, data []byte) bool {
	if strings.Contains(contentType, "wav") {
		return true
	}
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// parseWAV reads the fmt/data chunks via go-audio/wav and derives duration
// from data-chunk size and byte rate, per spec §4.4 strategy 2.
func parseWAV(data []byte) (time.Duration, bool) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return 0, false
	}
	dur, err := dec.Duration()
	if err != nil || dur <= 0 {
		return 0, false
	}
	return dur, true
}
