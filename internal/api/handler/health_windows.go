//go:build windows

package handler

// getDiskStats is a no-op on Windows; disk fields report zero.
func getDiskStats(path string) (total, free, used int64, usedPct float64) {
	return 0, 0, 0, 0
}
