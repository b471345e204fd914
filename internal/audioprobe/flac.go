package audioprobe

import (
	"strings"
	"time"
)

func isFLAC(contentType string, data []byte) bool {
	if strings.Contains(contentType, "flac") {
		return true
	}
	return len(data) >= 4 && string(data[0:4]) == "fLaC"
}

// parseFLAC reads the mandatory STREAMINFO metadata block that always
// follows the "fLaC" magic: sample rate (20 bits) and total sample count
// (36 bits) give an exact duration with no frame scanning required.
func parseFLAC(data []byte) (time.Duration, bool) {
	if len(data) < 4+4+34 || string(data[0:4]) != "fLaC" {
		return 0, false
	}
	// Metadata block header: 1 byte (last-block flag + block type), 3 bytes length.
	blockType := data[4] & 0x7F
	if blockType != 0 { // STREAMINFO is always block type 0 and always first
		return 0, false
	}
	info := data[4+4:]
	if len(info) < 18 {
		return 0, false
	}

	// Bytes 10..17 of STREAMINFO: 20 bits sample rate, 3 bits channels-1,
	// 5 bits bits-per-sample-1, 36 bits total samples.
	b := info[10:18]
	sampleRate := int(b[0])<<12 | int(b[1])<<4 | int(b[2])>>4
	totalSamples := (uint64(b[3]&0x0F) << 32) | uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])

	if sampleRate == 0 || totalSamples == 0 {
		return 0, false
	}

	seconds := float64(totalSamples) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second)), true
}
