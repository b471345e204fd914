package audioprobe

import (
	"strings"
	"time"
)

func isMP3(contentType string, data []byte) bool {
	if strings.Contains(contentType, "mpeg") || strings.Contains(contentType, "mp3") {
		return true
	}
	if len(data) >= 3 && string(data[0:3]) == "ID3" {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

var mp3BitrateTableV1L3 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
var mp3SampleRateTableV1 = [4]int{44100, 48000, 32000, 0}

// parseMP3 walks past any ID3v2 tag, reads the first MPEG-1 Layer III frame
// header for bitrate and sample rate, then derives duration from the
// remaining audio byte count. Accurate for CBR; a reasonable approximation
// for VBR, consistent with the size-based nature of the underlying format.
func parseMP3(data []byte) (time.Duration, bool) {
	offset := skipID3v2(data)
	if offset >= len(data) {
		return 0, false
	}
	audio := data[offset:]

	idx := findFrameSync(audio)
	if idx < 0 || idx+4 > len(audio) {
		return 0, false
	}
	header := audio[idx : idx+4]

	versionBits := (header[1] >> 3) & 0x3
	layerBits := (header[1] >> 1) & 0x3
	if versionBits != 0x3 || layerBits != 0x1 { // MPEG-1, Layer III only
		return 0, false
	}

	bitrateIdx := (header[2] >> 4) & 0xF
	sampleRateIdx := (header[2] >> 2) & 0x3

	kbps := mp3BitrateTableV1L3[bitrateIdx]
	sampleRate := mp3SampleRateTableV1[sampleRateIdx]
	if kbps == 0 || sampleRate == 0 {
		return 0, false
	}

	audioBytes := len(audio) - idx
	bitsPerSecond := kbps * 1000
	seconds := float64(audioBytes*8) / float64(bitsPerSecond)
	return time.Duration(seconds * float64(time.Second)), true
}

func skipID3v2(data []byte) int {
	if len(data) < 10 || string(data[0:3]) != "ID3" {
		return 0
	}
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	return 10 + size
}

func findFrameSync(data []byte) int {
	for i := 0; i+1 < len(data); i++ {
		if data[i] == 0xFF && data[i+1]&0xE0 == 0xE0 {
			return i
		}
	}
	return -1
}
