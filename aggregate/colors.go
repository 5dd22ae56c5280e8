package aggregate

import (
	"hash/fnv"
	"strconv"
)

// Colors for the synthetic ballot rows.
const (
	blankColor = "#E5E7EB"
	nullColor  = "#6B7280"
)

// fallbackPalette colors parties whose roster entry carries no color.
var fallbackPalette = []string{
	"#2563EB", // blue
	"#DC2626", // red
	"#16A34A", // green
	"#D97706", // amber
	"#7C3AED", // purple
	"#0891B2", // cyan
	"#DB2777", // pink
	"#65A30D", // lime
	"#9333EA", // violet
	"#EA580C", // orange
}

// ColorFor returns the display color for a party: its declared color when
// present, otherwise a palette entry picked by hashing the party ID.
// Hashing keeps the choice stable across reloads and processes; color
// must never depend on the order parties were first seen.
func ColorFor(partyID int64, declared string) string {
	if declared != "" {
		return declared
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(partyID, 10)))
	return fallbackPalette[h.Sum32()%uint32(len(fallbackPalette))]
}
