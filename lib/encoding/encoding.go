// Package encoding implements the closed registry of text encodings a
// PDU's encoding-name field may declare (spec §4.4). The registry is
// a fixed, hand-maintained alias table, not an open-ended lookup into
// golang.org/x/text/encoding's much larger catalogue: SCEDA-CHAT peers
// only ever need to recognize the handful of legacy encodings the
// original client shipped with, and accepting arbitrary IANA names
// would let a peer declare an encoding nothing in this module can
// actually validate payload bytes against.
package encoding

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Tag identifies one of the encodings a peer can declare on the wire.
type Tag int

const (
	Unknown Tag = iota
	ASCII
	UTF7
	UTF8
	UTF16LE
	UTF16BE
	UTF32
	Latin1
)

func (t Tag) String() string {
	switch t {
	case ASCII:
		return "ASCII"
	case UTF7:
		return "UTF-7"
	case UTF8:
		return "UTF-8"
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	case UTF32:
		return "UTF-32"
	case Latin1:
		return "Latin-1"
	default:
		return "unknown"
	}
}

// aliases maps every lowercase name the original client accepts to its
// Tag, mirroring encodings.c's get_encoding chain of comparisons.
var aliases = map[string]Tag{
	"us-ascii": ASCII,
	"ascii":    ASCII,

	"utf-7": UTF7,

	"utf-8": UTF8,

	"utf-16":   UTF16LE,
	"utf-16le": UTF16LE,

	"utf-16be": UTF16BE,

	"utf-32": UTF32,

	"cp819":        Latin1,
	"csisolatin1":  Latin1,
	"ibm819":       Latin1,
	"iso-8859-1":   Latin1,
	"iso-ir-100":   Latin1,
	"l1":           Latin1,
	"latin1":       Latin1,
}

// canonicalNames gives the wire name Name writes out for each tag; it
// is not always the same string that was accepted on the way in (e.g.
// "utf-16" is both the alias and the canonical name for UTF16LE, but
// "cp819" canonicalizes to "iso-8859-1").
var canonicalNames = map[Tag]string{
	ASCII:   "us-ascii",
	UTF7:    "utf-7",
	UTF8:    "utf-8",
	UTF16LE: "utf-16",
	UTF16BE: "utf-16be",
	UTF32:   "utf-32",
	Latin1:  "iso-8859-1",
}

// Parse resolves the wire encoding name to its Tag, case-insensitively.
// Unknown returns Unknown, never an error: an unrecognized encoding
// name is itself valid protocol state (spec §4.4), to be handled by
// the caller rather than rejected at the parsing layer.
func Parse(name string) Tag {
	if tag, ok := aliases[strings.ToLower(name)]; ok {
		return tag
	}
	return Unknown
}

// Name returns the canonical wire name for tag, and false for Unknown
// (which has no canonical wire representation, matching
// get_encoding_name's -1 return for ENCODING_UNKNOWN).
func Name(tag Tag) (string, bool) {
	name, ok := canonicalNames[tag]
	return name, ok
}

// x/text encoding implementations for the tags x/text actually has a
// decoder for. ASCII and UTF-8 are deliberately absent: encoding.Nop
// is an identity pass-through, not a validator, so it would make
// Validate report true for any bytes at all under those two tags.
// They're checked by hand below instead. UTF-7 has no counterpart in
// x/text (it is rarely implemented anywhere); Validate treats it as
// always valid since this module has no way to check it.
var implementations = map[Tag]encoding.Encoding{
	UTF16LE: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	UTF16BE: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	UTF32:   utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	Latin1:  charmap.ISO8859_1,
}

// Validate reports whether payload is well-formed for the declared
// tag. It layers on top of the closed alias table above rather than
// replacing it: Parse decides what a peer is allowed to claim,
// Validate decides whether the bytes it sent actually match that
// claim.
func Validate(tag Tag, payload []byte) bool {
	switch tag {
	case ASCII:
		return isASCII(payload)
	case UTF8:
		return utf8.Valid(payload)
	case UTF7:
		return true
	}

	impl, ok := implementations[tag]
	if !ok {
		return false
	}
	// x/text decoders replace invalid input with U+FFFD instead of
	// failing, so well-formedness is checked by re-encoding the decoded
	// text and comparing it with the original bytes.
	decoded, err := impl.NewDecoder().Bytes(payload)
	if err != nil {
		return false
	}
	reencoded, err := impl.NewEncoder().Bytes(decoded)
	return err == nil && string(reencoded) == string(payload)
}

// isASCII reports whether every byte of payload is a 7-bit US-ASCII
// code point.
func isASCII(payload []byte) bool {
	for _, b := range payload {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
