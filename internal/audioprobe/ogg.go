package audioprobe

import (
	"encoding/binary"
	"strings"
	"time"
)

func isOGG(contentType string, data []byte) bool {
	if strings.Contains(contentType, "ogg") {
		return true
	}
	return len(data) >= 4 && string(data[0:4]) == "OggS"
}

// parseOGG reads the sample rate from the first ("identification") page's
// Vorbis header and the granule position (cumulative sample count) from
// the final page to compute exact duration = granulePos / sampleRate.
func parseOGG(data []byte) (time.Duration, bool) {
	sampleRate, ok := oggVorbisSampleRate(data)
	if !ok {
		return 0, false
	}

	granule, ok := oggLastGranulePosition(data)
	if !ok || granule <= 0 {
		return 0, false
	}

	seconds := float64(granule) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second)), true
}

// oggVorbisSampleRate scans the first page payload for the Vorbis
// identification header and reads its little-endian sample-rate field.
func oggVorbisSampleRate(data []byte) (int, bool) {
	pageStart, headerLen, payloadLen, ok := oggFirstPage(data)
	if !ok {
		return 0, false
	}
	payload := data[pageStart+headerLen : pageStart+headerLen+payloadLen]
	// Vorbis ident header: 1 byte packet type (0x01) + "vorbis" + 4 bytes
	// version + 1 byte channels + 4 bytes sample rate (little-endian).
	const marker = "\x01vorbis"
	if len(payload) < len(marker)+9 || string(payload[0:len(marker)]) != marker {
		return 0, false
	}
	off := len(marker) + 4 + 1
	sampleRate := binary.LittleEndian.Uint32(payload[off : off+4])
	if sampleRate == 0 {
		return 0, false
	}
	return int(sampleRate), true
}

func oggFirstPage(data []byte) (pageStart, headerLen, payloadLen int, ok bool) {
	if len(data) < 27 || string(data[0:4]) != "OggS" {
		return 0, 0, 0, false
	}
	segCount := int(data[26])
	headerLen = 27 + segCount
	if len(data) < headerLen {
		return 0, 0, 0, false
	}
	total := 0
	for i := 0; i < segCount; i++ {
		total += int(data[27+i])
	}
	return 0, headerLen, total, true
}

// oggLastGranulePosition scans every page for its 8-byte little-endian
// granule position field, returning the last non-zero one seen (the final
// page's granule position is the total decoded sample count).
func oggLastGranulePosition(data []byte) (uint64, bool) {
	var last uint64
	found := false
	pos := 0
	for pos+27 <= len(data) {
		if string(data[pos:pos+4]) != "OggS" {
			break
		}
		granule := binary.LittleEndian.Uint64(data[pos+6 : pos+14])
		segCount := int(data[pos+26])
		headerLen := 27 + segCount
		if pos+headerLen > len(data) {
			break
		}
		payloadLen := 0
		for i := 0; i < segCount; i++ {
			payloadLen += int(data[pos+27+i])
		}
		if granule != 0 {
			last = granule
			found = true
		}
		pos += headerLen + payloadLen
	}
	return last, found
}
