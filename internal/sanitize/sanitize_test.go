package sanitize_test

import (
	"reflect"
	"testing"

	"sublingo/internal/sanitize"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"1. Hello":        "Hello",
		"10、Hello":        "Hello",
		"  a   b  ":       "a b",
		"3) Go home":      "Go home",
		" 07 .  Wait":     "Wait",
		"1990 was a year": "1990 was a year",
		"":                "",
		"line\tone\ntwo":  "line one two",
	}
	for input, want := range cases {
		if got := sanitize.Sanitize(input); got != want {
			t.Fatalf("Sanitize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizePunctuation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Xin chào,bạn khỏe không ?", "Xin chào, bạn khỏe không?"},
		{"Wait !Stop", "Wait! Stop"},
		{"“Quoted” and ‘single’", `"Quoted" and 'single'`},
		{"end  .", "end."},
		{"a ;b:c", "a; b: c"},
	}
	for _, tc := range cases {
		if got := sanitize.NormalizePunctuation(tc.in); got != tc.want {
			t.Fatalf("NormalizePunctuation(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRemoveHTMLTags(t *testing.T) {
	got := sanitize.RemoveHTMLTags(`<i>Hello</i>\N<font color="#ff0000">world</font> <br>`)
	if want := "Hello world <br>"; got != want {
		t.Fatalf("RemoveHTMLTags = %q, want %q", got, want)
	}
}

func TestProcessBatchKeepsOrderAndCount(t *testing.T) {
	names := sanitize.NewNameMap(sanitize.Pair{Source: "Lý Tiêu Dao", Target: "Li Xiaoyao"})
	lines := []string{"1. Lý Tiêu Dao ,đi thôi", "", "2) ok"}
	got := sanitize.ProcessBatch(lines, names, true)
	want := []string{"Li Xiaoyao, đi thôi", "", "ok"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ProcessBatch = %#v, want %#v", got, want)
	}
	if lines[0] != "1. Lý Tiêu Dao ,đi thôi" {
		t.Fatal("input slice must not be modified")
	}
}

func TestProcessBatchWithoutNormalize(t *testing.T) {
	got := sanitize.ProcessBatch([]string{"a ,b"}, sanitize.NameMap{}, false)
	if got[0] != "a ,b" {
		t.Fatalf("expected punctuation untouched, got %q", got[0])
	}
}
