package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// BuildSRT renders cues with one-second timecodes starting at index 1.
func BuildSRT(lines ...string) string {
	blocks := make([]string, 0, len(lines))
	for i, line := range lines {
		start := fmt.Sprintf("00:00:%02d,000", i%60)
		end := fmt.Sprintf("00:00:%02d,900", i%60)
		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\n%s\n", i+1, start, end, line))
	}
	return strings.Join(blocks, "\n")
}

// WriteSRT writes BuildSRT(lines...) to name under dir and returns the path.
func WriteSRT(t testing.TB, dir, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(BuildSRT(lines...)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ChineseLines returns n distinct source lines.
func ChineseLines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("第%d句台词", i+1)
	}
	return out
}
