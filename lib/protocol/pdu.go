// Package protocol implements the wire format of a SCEDA-CHAT PDU: a
// two-byte magic, a cleartext chat ID and IV, and an SCEDA-encrypted
// body carrying the PDU type, encoding name, and payload (spec §4.3).
package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/scedachat/scedachat/lib/encoding"
	"github.com/scedachat/scedachat/lib/sceda"
)

// Type identifies the kind of a PDU, mirroring SCPduType in the
// reference implementation's sc.h.
type Type int

const (
	TypeUnknown Type = iota
	TypeHello         // "HLO"
	TypeWelcome       // "ACK"
	TypeLeave         // "LEV"
	TypeMessage       // "MSG"
	TypeMalformed     // "BAD"
	TypeConflict      // "CNF"
)

var typeNames = map[Type]string{
	TypeHello:     "HLO",
	TypeWelcome:   "ACK",
	TypeLeave:     "LEV",
	TypeMessage:   "MSG",
	TypeMalformed: "BAD",
	TypeConflict:  "CNF",
}

var namesToType = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, n := range typeNames {
		m[n] = t
	}
	return m
}()

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// ParseType converts a three-letter acronym into a Type, returning
// TypeUnknown for anything else.
func ParseType(s string) Type {
	if t, ok := namesToType[s]; ok {
		return t
	}
	return TypeUnknown
}

var (
	// ErrMalformedFrame is returned for a PDU too short or otherwise
	// structurally broken to even attempt decryption, and for a
	// decrypted body that lacks the type code or the encoding-name
	// terminator.
	ErrMalformedFrame = errors.New("protocol: malformed frame")
	// ErrUnknownType is returned when the decrypted body names a type
	// acronym outside the closed PDU type registry.
	ErrUnknownType = errors.New("protocol: unknown PDU type")
	// ErrUnknownEncoding is returned when the decrypted body names an
	// encoding outside the closed encoding registry.
	ErrUnknownEncoding = errors.New("protocol: unknown encoding")
	// ErrDecryptFailed is returned by Deserialize in place of
	// sceda.ErrDecryptFailed, for callers that only import this
	// package; the sceda error itself is not wrapped.
	ErrDecryptFailed = errors.New("protocol: decrypt failed")
	// ErrWrongChatID names the wrong-chat-ID error kind. No function in
	// this package returns it: Deserialize does not check the chat ID,
	// and CheckChatID reports a mismatch as false.
	ErrWrongChatID = errors.New("protocol: wrong chat ID")
)

const (
	magicByte0 = 0x00
	magicByte1 = 0x01
)

// PDU is the decoded form of a SCEDA-CHAT message.
type PDU struct {
	ChatID   string
	Type     Type
	Encoding encoding.Tag
	Payload  []byte
}

// Serialize encodes pdu into its binary wire form using key, drawing a
// fresh random IV from the SCEDA PRNG for this frame.
func Serialize(pdu *PDU, key []byte) ([]byte, error) {
	if pdu.Type == TypeUnknown {
		return nil, fmt.Errorf("protocol: cannot serialize %w", ErrUnknownType)
	}
	name, ok := encoding.Name(pdu.Encoding)
	if !ok {
		return nil, fmt.Errorf("protocol: cannot serialize %w", ErrUnknownEncoding)
	}

	var body bytes.Buffer
	body.WriteString(pdu.Type.String())
	body.WriteString(name)
	body.WriteByte(0)
	body.Write(pdu.Payload)

	iv := sceda.GenerateIV()
	ciphertext := sceda.Encrypt(body.Bytes(), key, iv)

	var out bytes.Buffer
	out.WriteByte(magicByte0)
	out.WriteByte(magicByte1)
	out.WriteString(pdu.ChatID)
	out.WriteByte(0)
	out.Write(iv)
	out.Write(ciphertext)

	return out.Bytes(), nil
}

// CheckChatID reports whether frame declares chatID, without
// decrypting it. This lets a listener cheaply discard PDUs belonging
// to a different chat room before spending a cipher pass on them.
func CheckChatID(frame []byte, chatID string) bool {
	if len(frame) < 2+len(chatID)+1 {
		return false
	}
	if frame[0] != magicByte0 || frame[1] != magicByte1 {
		return false
	}
	want := append([]byte(chatID), 0)
	return bytes.Equal(frame[2:2+len(want)], want)
}

// Deserialize decrypts and parses frame using key. It does not itself
// check the chat ID; callers that need the prefilter should call
// CheckChatID first (it's cheaper, and independently useful for
// routing frames to the right Host before a key is even known).
func Deserialize(frame []byte, key []byte) (*PDU, error) {
	if len(frame) < 2 {
		return nil, ErrMalformedFrame
	}
	if frame[0] != magicByte0 || frame[1] != magicByte1 {
		return nil, ErrMalformedFrame
	}

	rest := frame[2:]
	idEnd := bytes.IndexByte(rest, 0)
	if idEnd < 0 {
		return nil, ErrMalformedFrame
	}
	chatID := string(rest[:idEnd])
	rest = rest[idEnd+1:]

	if len(rest) < sceda.IVSize {
		return nil, ErrMalformedFrame
	}
	iv := rest[:sceda.IVSize]
	ciphertext := rest[sceda.IVSize:]

	plaintext, err := sceda.Decrypt(ciphertext, key, iv)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	if len(plaintext) < 3 {
		return nil, ErrMalformedFrame
	}
	typ := ParseType(string(plaintext[:3]))
	if typ == TypeUnknown {
		return nil, ErrUnknownType
	}

	body := plaintext[3:]
	encEnd := bytes.IndexByte(body, 0)
	if encEnd < 0 {
		return nil, ErrMalformedFrame
	}
	tag := encoding.Parse(string(body[:encEnd]))
	if tag == encoding.Unknown {
		return nil, ErrUnknownEncoding
	}
	payload := body[encEnd+1:]

	return &PDU{
		ChatID:   chatID,
		Type:     typ,
		Encoding: tag,
		Payload:  payload,
	}, nil
}
