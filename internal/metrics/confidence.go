package metrics

// NormalizeConfidence maps a raw vendor confidence score to [0,1] per spec
// §4.3.2: nil -> 0; 1 < x <= 100 -> x/100 (treated as a percentage); else
// clamp to [0,1]. Vendor confidences are never comparable across vendors
// without documented calibration — this only guarantees a common range.
func NormalizeConfidence(x *float64) float64 {
	if x == nil {
		return 0
	}
	v := *x
	if v > 1 && v <= 100 {
		return v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
