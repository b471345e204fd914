// Package audioprobe implements the three-strategy audio duration probe of
// spec §4.4: prefer a vendor-reported duration, fall back to container-aware
// parsing, and only then to a documented size-based estimate.
package audioprobe

import "time"

// maxPlausibleDuration rejects anything above 24h (spec §4.4).
const maxPlausibleDuration = 24 * time.Hour

// Result carries the probed duration and whether it was estimated rather
// than measured precisely.
type Result struct {
	Duration  time.Duration
	Estimated bool
}

// Probe resolves audio_duration using the priority chain:
//  1. vendorDuration if the adapter supplied one.
//  2. container-aware parse of data (WAV/MP3/OGG/FLAC).
//  3. a size-based estimate, flagged as Estimated.
//
// ok is false when no strategy produces a value in (0, 24h].
func Probe(data []byte, contentType string, vendorDuration *time.Duration) (Result, bool) {
	if vendorDuration != nil {
		if r, ok := accept(*vendorDuration, false); ok {
			return r, true
		}
	}

	if dur, ok := parseContainer(data, contentType); ok {
		if r, ok := accept(dur, false); ok {
			return r, true
		}
	}

	if dur, ok := estimateFromSize(data, contentType); ok {
		if r, ok := accept(dur, true); ok {
			return r, true
		}
	}

	return Result{}, false
}

func accept(dur time.Duration, estimated bool) (Result, bool) {
	if dur <= 0 || dur > maxPlausibleDuration {
		return Result{}, false
	}
	return Result{Duration: dur, Estimated: estimated}, true
}

func parseContainer(data []byte, contentType string) (time.Duration, bool) {
	switch {
	case isWAV(contentType, data):
		return parseWAV(data)
	case isMP3(contentType, data):
		return parseMP3(data)
	case isOGG(contentType, data):
		return parseOGG(data)
	case isFLAC(contentType, data):
		return parseFLAC(data)
	default:
		return 0, false
	}
}
