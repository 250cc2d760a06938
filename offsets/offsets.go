// Package offsets converts between the UTF-8 byte offsets reported by selene
// and the UTF-16 positions used by LSP clients.
package offsets

import (
	"slices"
	"unicode/utf16"
	"unicode/utf8"
)

// Map holds byte offset -> UTF-16 offset resolutions for a single text
// snapshot. It must not outlive the snapshot it was computed from.
type Map map[int]int

// Lookup returns the UTF-16 offset for byteOffset. Offsets that could not be
// resolved fall back to the raw byte offset, which is only accurate for
// ASCII text before the offset.
func (m Map) Lookup(byteOffset int) int {
	if off, ok := m[byteOffset]; ok {
		return off
	}
	return byteOffset
}

// Resolve maps every offset in byteOffsets to the UTF-16 index just after
// the first rune whose cumulative UTF-8 length reaches that offset. Offset 0
// always resolves to 0. Offsets past the end of text are left out of the
// result; use [Map.Lookup] to apply the fallback.
func Resolve(text string, byteOffsets map[int]struct{}) Map {
	resolved := make(Map, len(byteOffsets))
	if len(byteOffsets) == 0 {
		return resolved
	}

	pending := make([]int, 0, len(byteOffsets))
	for off := range byteOffsets {
		switch {
		case off == 0:
			resolved[0] = 0
		case off > 0:
			pending = append(pending, off)
		}
	}
	slices.Sort(pending)

	var units, next int
	for i := 0; i < len(text) && next < len(pending); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		units += utf16.RuneLen(r)
		for next < len(pending) && i >= pending[next] {
			resolved[pending[next]] = units
			next++
		}
	}
	return resolved
}
