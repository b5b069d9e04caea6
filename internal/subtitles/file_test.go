package subtitles_test

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"

	"sublingo/internal/subtitles"
)

func TestReadFileUTF8WithBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.srt")
	if err := os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, []byte(sample)...), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	text, enc, err := subtitles.ReadFile(path, "")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if enc != "utf-8" || text != sample {
		t.Fatalf("got encoding %q text %q", enc, text)
	}
}

func TestReadFileFallsBackToGB18030(t *testing.T) {
	encoded, err := simplifiedchinese.GB18030.NewEncoder().String(sample)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "gbk.srt")
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	text, enc, err := subtitles.ReadFile(path, "")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if enc != "gb18030" || text != sample {
		t.Fatalf("got encoding %q text %q", enc, text)
	}

	named, _, err := subtitles.ReadFile(path, "gbk")
	if err != nil {
		t.Fatalf("ReadFile gbk: %v", err)
	}
	if named != sample {
		t.Fatalf("named decode mismatch: %q", named)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	if err := subtitles.WriteFile(path, "1\n00:00:01,000 --> 00:00:02,000\nXin chào\n"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "1\n00:00:01,000 --> 00:00:02,000\nXin chào\n" {
		t.Fatalf("unexpected contents %q", data)
	}
}
