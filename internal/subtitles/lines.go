package subtitles

// Lines is a 1-indexed sequence. Index 0 is reserved and always "".
type Lines []string

// NewLines allocates a sequence with n real entries.
func NewLines(n int) Lines {
	if n < 0 {
		n = 0
	}
	return make(Lines, n+1)
}

// FromSlice builds a sequence whose index 1 holds values[0].
func FromSlice(values []string) Lines {
	lines := NewLines(len(values))
	copy(lines[1:], values)
	return lines
}

// Count returns the number of real entries, excluding index 0.
func (l Lines) Count() int {
	if len(l) == 0 {
		return 0
	}
	return len(l) - 1
}

// At returns the entry at idx or "" when idx is out of range.
func (l Lines) At(idx int) string {
	if idx < 1 || idx >= len(l) {
		return ""
	}
	return l[idx]
}

// Clone returns an independent copy.
func (l Lines) Clone() Lines {
	out := make(Lines, len(l))
	copy(out, l)
	return out
}
