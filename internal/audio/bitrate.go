package audio

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBitrate accepts "64k", "64K" or "64000" and returns bits per second.
func ParseBitrate(s string) (int, error) {
	s = strings.TrimSpace(s)
	mult := 1
	if strings.HasSuffix(s, "k") || strings.HasSuffix(s, "K") {
		mult = 1000
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid bitrate %q", s)
	}
	return n * mult, nil
}
