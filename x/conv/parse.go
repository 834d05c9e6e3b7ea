package conv

// ParseUint parses a base-10 unsigned integer from b.
// Returns false on empty input, non-digit bytes, or overflow past max.
// No allocations; no strconv dependency (TinyGo-friendly).
func ParseUint(b []byte, max uint64) (uint64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > max {
			return 0, false
		}
	}
	return n, true
}
