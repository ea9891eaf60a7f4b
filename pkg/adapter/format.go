package adapter

import "fmt"

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatByteSize renders a byte count as a human-readable string with two
// decimal places, scaling at 1024-byte boundaries: 0 -> "0.00 B",
// 1024 -> "1.00 KB", 1073741824 -> "1.00 GB". Negative counts format as the
// sign plus the formatted magnitude. All adapters share this helper when
// filling TableStatistics.SizeHuman.
func FormatByteSize(n int64) string {
	if n < 0 {
		return "-" + FormatByteSize(-n)
	}

	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, byteUnits[unit])
}
