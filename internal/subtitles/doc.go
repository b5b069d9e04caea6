// Package subtitles reads and writes SRT documents as 1-indexed line arrays.
//
// Parse tolerates index gaps and multi-line cues and skips malformed blocks
// with a Warning instead of failing. Export writes only the cues that have
// both a timecode and content. ReadFile decodes legacy encodings (GB18030,
// Big5, Latin-1) through golang.org/x/text when the input is not UTF-8.
package subtitles
