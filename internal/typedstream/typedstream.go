// Package typedstream recovers message text from the attributedBody
// blob chat.db stores when the plain text column is empty. The blob is
// either a binary-plist keyed archive or an NeXT typedstream; both are
// parsed best effort and never produce an error, only missing text.
package typedstream

import (
	"bytes"
	"strings"
	"unicode"

	"howett.net/plist"
)

var (
	archiveMagic = []byte("bplist")
	stringMarker = []byte("NSString")
)

const (
	minBodyLen = 8
	// Bytes between the NSString marker and the length field in a
	// typedstream body.
	markerHeaderLen = 5
	// Inline-string type tag that may precede the length field.
	inlineStringTag = 0x2b
)

// Decode extracts the message text from an attributedBody buffer.
// Returns "" when no text is recoverable.
func Decode(buf []byte) string {
	if len(buf) < minBodyLen {
		return ""
	}
	if bytes.HasPrefix(buf, archiveMagic) {
		if s, ok := decodeKeyedArchive(buf); ok {
			return s
		}
	}
	return decodeStream(buf)
}

// decodeKeyedArchive parses a binary plist and looks for the string
// under the known keys, preferring a direct string over the nested
// attributed-string container.
func decodeKeyedArchive(buf []byte) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()

	var root map[string]any
	if _, err := plist.Unmarshal(buf, &root); err != nil {
		return "", false
	}
	if s, ok := lookupString(root); ok {
		return s, true
	}
	if nested, isDict := root["NSAttributedString"].(map[string]any); isDict {
		if s, ok := lookupString(nested); ok {
			return s, true
		}
	}
	return "", false
}

func lookupString(dict map[string]any) (string, bool) {
	for _, key := range []string{"NSString", "NS.string"} {
		if s, ok := asString(dict[key]); ok {
			return s, true
		}
	}
	return "", false
}

// asString unwraps the two string encodings keyed archives use: a bare
// string, or a one-entry dict holding it under "NS.string".
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if s := clean(t); s != "" {
			return s, true
		}
	case map[string]any:
		return asString(t["NS.string"])
	}
	return "", false
}

// decodeStream scans for the literal NSString marker and reads the
// length-prefixed UTF-8 payload that follows its fixed header.
func decodeStream(buf []byte) string {
	i := bytes.Index(buf, stringMarker)
	if i < 0 {
		return ""
	}
	p := i + len(stringMarker) + markerHeaderLen
	if p >= len(buf) {
		return ""
	}
	if buf[p] == inlineStringTag {
		p++
	}
	length, p, ok := readLength(buf, p)
	if !ok || length <= 0 || p+length > len(buf) {
		return ""
	}
	return clean(string(buf[p : p+length]))
}

// readLength parses the string length field. A byte below 0x80 is the
// length itself; otherwise its low 7 bits count how many following
// bytes encode the length big-endian, optionally terminated by a
// single NUL separator.
func readLength(buf []byte, p int) (length, next int, ok bool) {
	if p >= len(buf) {
		return 0, 0, false
	}
	b := buf[p]
	p++
	if b < 0x80 {
		return int(b), p, true
	}
	n := int(b & 0x7f)
	if n == 0 || n > 8 || p+n > len(buf) {
		return 0, 0, false
	}
	for j := 0; j < n; j++ {
		length = length<<8 | int(buf[p+j])
	}
	p += n
	if p < len(buf) && buf[p] == 0x00 {
		p++
	}
	return length, p, true
}

// clean strips trailing control and stray high bytes plus surrounding
// whitespace, and rejects strings with no printable content at all.
func clean(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) || r == unicode.ReplacementChar
	})
	s = strings.TrimSpace(s)
	if strings.IndexFunc(s, func(r rune) bool { return !unicode.IsControl(r) }) < 0 {
		return ""
	}
	return s
}
