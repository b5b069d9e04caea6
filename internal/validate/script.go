package validate

import "unicode"

// baseRanges covers CJK Unified Ideographs.
var baseRanges = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1}},
}

// strictRanges adds Extension A, Extension B, and Compatibility Ideographs.
var strictRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3400, Hi: 0x4DBF, Stride: 1},
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1},
		{Lo: 0xF900, Hi: 0xFAFF, Stride: 1},
	},
	R32: []unicode.Range32{{Lo: 0x20000, Hi: 0x2A6DF, Stride: 1}},
}

func scriptTable(strict bool) *unicode.RangeTable {
	if strict {
		return strictRanges
	}
	return baseRanges
}

// ContainsSourceScript reports whether text still holds a source-script rune.
func ContainsSourceScript(text string, strict bool) bool {
	table := scriptTable(strict)
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}

// ScanLines returns the zero-based positions of lines that still contain
// source-script runes.
func ScanLines(lines []string, strict bool) []int {
	var hits []int
	for i, line := range lines {
		if ContainsSourceScript(line, strict) {
			hits = append(hits, i)
		}
	}
	return hits
}
