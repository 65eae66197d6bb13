package distribution

// KeysEqual reports whether a and b hold the same keys with the same
// multiplicities, in any order.
func KeysEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	counts := make(map[string]int, len(a))
	for _, k := range a {
		counts[k]++
	}
	for _, k := range b {
		counts[k]--
		if counts[k] < 0 {
			return false
		}
	}

	return true
}
