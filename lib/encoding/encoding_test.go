package encoding

import "testing"

func TestParseAliases(t *testing.T) {
	cases := map[string]Tag{
		"US-ASCII":   ASCII,
		"ascii":      ASCII,
		"UTF-7":      UTF7,
		"utf-8":      UTF8,
		"UTF-16":     UTF16LE,
		"utf-16le":   UTF16LE,
		"UTF-16BE":   UTF16BE,
		"utf-32":     UTF32,
		"ISO-8859-1": Latin1,
		"L1":         Latin1,
		"CP819":      Latin1,
		"klingon":    Unknown,
		"":           Unknown,
	}
	for name, want := range cases {
		if got := Parse(name); got != want {
			t.Errorf("Parse(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNameRoundTrip(t *testing.T) {
	for _, tag := range []Tag{ASCII, UTF7, UTF8, UTF16LE, UTF16BE, UTF32, Latin1} {
		name, ok := Name(tag)
		if !ok {
			t.Errorf("Name(%v) reported not ok", tag)
			continue
		}
		if got := Parse(name); got != tag {
			t.Errorf("Parse(Name(%v)) = %v, want %v", tag, got, tag)
		}
	}
}

func TestNameUnknown(t *testing.T) {
	if _, ok := Name(Unknown); ok {
		t.Error("Name(Unknown) reported ok, want false")
	}
}

func TestValidateASCII(t *testing.T) {
	if !Validate(ASCII, []byte("hello")) {
		t.Error("Validate(ASCII, \"hello\") = false, want true")
	}
}

func TestValidateASCIIRejectsHighBit(t *testing.T) {
	if Validate(ASCII, []byte{'h', 'i', 0xe9}) {
		t.Error("Validate(ASCII, payload with a high-bit byte) = true, want false")
	}
}

func TestValidateUTF8RejectsInvalidSequence(t *testing.T) {
	if Validate(UTF8, []byte{0xc3, 0x28}) {
		t.Error("Validate(UTF8, invalid sequence) = true, want false")
	}
}

func TestValidateUTF8AcceptsMultibyte(t *testing.T) {
	if !Validate(UTF8, []byte("café")) {
		t.Error("Validate(UTF8, \"café\") = false, want true")
	}
}

func TestValidateUTF16LERejectsOddLength(t *testing.T) {
	if Validate(UTF16LE, []byte{0x41}) {
		t.Error("Validate(UTF16LE, odd-length payload) = true, want false")
	}
}

func TestValidateLatin1AcceptsAnyByte(t *testing.T) {
	for b := 0; b < 256; b++ {
		if !Validate(Latin1, []byte{byte(b)}) {
			t.Errorf("Validate(Latin1, [%d]) = false, want true", b)
		}
	}
}

func TestValidateUTF7IsPassthrough(t *testing.T) {
	if !Validate(UTF7, []byte{0xff, 0xfe}) {
		t.Error("Validate(UTF7, ...) = false, want true (no validator available)")
	}
}
