package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/scedachat/scedachat/lib/encoding"
)

func testKey() []byte {
	return []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	key := testKey()
	pdu := &PDU{
		ChatID:   "my-room",
		Type:     TypeMessage,
		Encoding: encoding.ASCII,
		Payload:  []byte("hello there"),
	}

	frame, err := Serialize(pdu, key)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := Deserialize(frame, key)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.ChatID != pdu.ChatID || got.Type != pdu.Type || got.Encoding != pdu.Encoding {
		t.Errorf("round trip mismatch: got %+v, want fields of %+v", got, pdu)
	}
	if !bytes.Equal(got.Payload, pdu.Payload) {
		t.Errorf("payload mismatch: got %q, want %q", got.Payload, pdu.Payload)
	}
}

func TestSerializeEmptyPayloadTypes(t *testing.T) {
	key := testKey()
	for _, typ := range []Type{TypeHello, TypeWelcome, TypeLeave, TypeMalformed, TypeConflict} {
		pdu := &PDU{ChatID: "room", Type: typ, Encoding: encoding.ASCII}
		frame, err := Serialize(pdu, key)
		if err != nil {
			t.Fatalf("Serialize(%v): %v", typ, err)
		}
		got, err := Deserialize(frame, key)
		if err != nil {
			t.Fatalf("Deserialize(%v): %v", typ, err)
		}
		if got.Type != typ {
			t.Errorf("type mismatch: got %v, want %v", got.Type, typ)
		}
	}
}

func TestCheckChatIDAgreesWithDeserialize(t *testing.T) {
	key := testKey()
	pdu := &PDU{ChatID: "room-a", Type: TypeMessage, Encoding: encoding.ASCII, Payload: []byte("hi")}
	frame, err := Serialize(pdu, key)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if !CheckChatID(frame, "room-a") {
		t.Error("CheckChatID(frame, \"room-a\") = false, want true")
	}
	if CheckChatID(frame, "room-b") {
		t.Error("CheckChatID(frame, \"room-b\") = true, want false")
	}

	_, err = Deserialize(frame, key)
	if err != nil {
		t.Fatalf("Deserialize after CheckChatID match: %v", err)
	}
}

func TestCheckChatIDRejectsBadMagic(t *testing.T) {
	frame := []byte{0x02, 0x01, 'r', 'o', 'o', 'm', 0}
	if CheckChatID(frame, "room") {
		t.Error("CheckChatID accepted bad magic")
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	frame := []byte{0x02, 0x01, 'r', 'o', 'o', 'm', 0}
	_, err := Deserialize(frame, testKey())
	if !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("err = %v, want ErrMalformedFrame", err)
	}
}

func TestDeserializeRejectsWrongKey(t *testing.T) {
	key := testKey()
	pdu := &PDU{ChatID: "room", Type: TypeMessage, Encoding: encoding.ASCII, Payload: []byte("hi")}
	frame, err := Serialize(pdu, key)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	wrongKey := make([]byte, 16)
	copy(wrongKey, key)
	wrongKey[0] ^= 0xff

	_, err = Deserialize(frame, wrongKey)
	if err == nil {
		t.Error("Deserialize with wrong key unexpectedly succeeded")
	}
}

func TestSerializeRejectsUnknownType(t *testing.T) {
	pdu := &PDU{ChatID: "room", Type: TypeUnknown, Encoding: encoding.ASCII}
	if _, err := Serialize(pdu, testKey()); !errors.Is(err, ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func TestParseTypeUnknown(t *testing.T) {
	if got := ParseType("XXX"); got != TypeUnknown {
		t.Errorf("ParseType(\"XXX\") = %v, want TypeUnknown", got)
	}
}
