// Package sizegate rejects encodes that did not actually save space.
package sizegate

import "fmt"

// Result is the outcome of checking an encoded output's size against the
// original.
type Result struct {
	Pass             bool
	SavingsBytes     int64
	CompressionRatio float64
	ThresholdBytes   int64
}

// Check reports whether newBytes is strictly below the allowed fraction
// of originalBytes. The threshold is floor(originalBytes * maxRatio); the
// new size must be strictly less than it, not merely less-or-equal.
func Check(originalBytes, newBytes int64, maxRatio float64) Result {
	threshold := int64(float64(originalBytes) * maxRatio)

	r := Result{
		ThresholdBytes: threshold,
	}
	if originalBytes > 0 {
		r.CompressionRatio = float64(newBytes) / float64(originalBytes)
	}

	if newBytes < threshold {
		r.Pass = true
		r.SavingsBytes = originalBytes - newBytes
	}

	return r
}

// Reason renders a human-readable explanation of a failed size gate.
func (r Result) Reason(newBytes int64) string {
	return fmt.Sprintf("size gate failed: %d bytes >= %d bytes threshold", newBytes, r.ThresholdBytes)
}
