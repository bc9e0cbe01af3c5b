package speech

// sapiRate maps words per minute onto SAPI's -10..10 rate scale.
func sapiRate(wpm int) int {
	return clamp((wpm-DefaultRate)/20, -10, 10)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
