package decode

import (
	"fmt"
	"strings"
)

const bytesPerLine = 16

// DefaultHexViewLines caps HexView output when callers have no preference.
const DefaultHexViewLines = 1000

// HexView renders data as an offset / hex / ASCII dump, 16 bytes per line.
// Output stops after maxLines lines (maxLines <= 0 means no limit) with a
// note giving the total size.
func HexView(data []byte, maxLines int) string {
	if len(data) == 0 {
		return ""
	}

	lines := (len(data) + bytesPerLine - 1) / bytesPerLine
	truncated := maxLines > 0 && lines > maxLines
	if truncated {
		lines = maxLines
	}

	var b strings.Builder
	b.Grow(lines * 80)
	for line := range lines {
		offset := line * bytesPerLine
		fmt.Fprintf(&b, "%08x  ", offset)

		for i := range bytesPerLine {
			if offset+i < len(data) {
				fmt.Fprintf(&b, "%02x ", data[offset+i])
			} else {
				b.WriteString("   ")
			}
			if i == 7 {
				b.WriteByte(' ')
			}
		}

		b.WriteString(" |")
		for i := 0; i < bytesPerLine && offset+i < len(data); i++ {
			c := data[offset+i]
			if c >= 32 && c <= 126 {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}

	if truncated {
		fmt.Fprintf(&b, "\n... (showing first %d lines of %d bytes)\n", maxLines, len(data))
	}
	return b.String()
}
