package audioprobe

import (
	"strings"
	"time"
)

// assumedBitrateKbps documents the bitrate assumption used when a
// container can't be parsed precisely (spec §4.4 strategy 3). These are
// typical encoder defaults for each format, not measured values — the
// estimated flag this produces must propagate to outputs.
var assumedBitrateKbps = map[string]int{
	"audio/mpeg": 128,
	"audio/mp3":  128,
	"audio/wav":  1411, // 44.1kHz/16-bit/stereo PCM
	"audio/ogg":  112,
	"audio/flac": 900,
}

const defaultAssumedBitrateKbps = 128

func estimateFromSize(data []byte, contentType string) (time.Duration, bool) {
	if len(data) == 0 {
		return 0, false
	}
	kbps := defaultAssumedBitrateKbps
	for prefix, rate := range assumedBitrateKbps {
		if strings.Contains(contentType, strings.TrimPrefix(prefix, "audio/")) {
			kbps = rate
			break
		}
	}
	bitsPerSecond := kbps * 1000
	seconds := float64(len(data)*8) / float64(bitsPerSecond)
	return time.Duration(seconds * float64(time.Second)), true
}
