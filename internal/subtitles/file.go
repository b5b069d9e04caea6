package subtitles

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyFallbacks are tried in order when the input is not valid UTF-8.
var legacyFallbacks = []struct {
	name string
	enc  encoding.Encoding
}{
	{"gb18030", simplifiedchinese.GB18030},
	{"big5", traditionalchinese.Big5},
	{"latin1", charmap.ISO8859_1},
}

// ReadFile loads a subtitle file as text. With an empty encoding it tries
// UTF-8, then GB18030, Big5 and Latin-1, keeping the first decode that
// produces no replacement characters. A named encoding is used as-is.
// The returned string is the encoding actually used.
func ReadFile(path, enc string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read subtitles: %w", err)
	}
	enc = strings.ToLower(strings.TrimSpace(enc))
	if enc != "" && enc != "auto" {
		text, err := decodeNamed(data, enc)
		if err != nil {
			return "", "", fmt.Errorf("read subtitles %s: %w", path, err)
		}
		return text, enc, nil
	}
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), "utf-8", nil
	}
	for _, candidate := range legacyFallbacks {
		decoded, err := candidate.enc.NewDecoder().Bytes(data)
		if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
			continue
		}
		return string(decoded), candidate.name, nil
	}
	return "", "", fmt.Errorf("read subtitles %s: unable to decode input", path)
}

// WriteFile writes text as UTF-8.
func WriteFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	return nil
}

func decodeNamed(data []byte, name string) (string, error) {
	switch name {
	case "utf-8", "utf8":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("input is not valid utf-8")
		}
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	case "latin1", "latin-1", "iso-8859-1":
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		return string(decoded), err
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(decoded), nil
}
