// Package sceda implements the bespoke SCEDA symmetric cipher used for
// confidentiality of every PDU on the wire. It is a two-pass,
// block-chained construction using the lib/digest package as its
// round function. It is deliberately not a standard AEAD (see spec
// §1 Non-goals) and every byte of its behavior, including the inner
// IV placement and the 49-byte evolving block key, must be reproduced
// exactly for interoperability.
package sceda

import (
	"errors"

	"github.com/scedachat/scedachat/lib/digest"
	"github.com/scedachat/scedachat/lib/logger"
)

var l = logger.DefaultLogger.NewFacility("sceda", "SCEDA cipher")

// ErrDecryptFailed is returned when ciphertext is not a multiple of
// 16 bytes, or the embedded length prefix it decodes to is out of the
// valid range. It is also what callers get when decrypting with the
// wrong key or IV: there is no MAC, so a wrong key simply produces a
// length field that is (with overwhelming probability) invalid.
var ErrDecryptFailed = errors.New("sceda: decrypt failed")

const (
	KeySize = 16
	IVSize  = 8

	blockSize    = 16
	blockKeySize = 49
)

// g is the SCEDA round engine. It processes blockCount 16-byte blocks
// of input into output (which may alias input), evolving a 49-byte
// block key seeded from key and iv as it goes. The same function
// serves both directions; decrypting only changes which of the two
// key "slots" is updated from ciphertext vs. plaintext at each step.
func g(output, input []byte, blockCount int, key []byte, iv []byte, decrypting bool) {
	blockKey := make([]byte, blockKeySize)
	copy(blockKey[0:16], key)
	copy(blockKey[16:24], iv)
	copy(blockKey[24:32], iv)
	copy(blockKey[32:40], iv)
	copy(blockKey[40:48], iv)
	blockKey[48] = 0

	for i := 0; i < blockCount; i++ {
		h := digest.Sum(blockKey)
		in := input[i*blockSize : (i+1)*blockSize]
		out := output[i*blockSize : (i+1)*blockSize]

		if decrypting {
			copy(blockKey[16:32], in)
		} else {
			copy(blockKey[32:48], in)
		}

		for j := 0; j < blockSize; j++ {
			out[j] = in[j] ^ h[j]
		}

		if decrypting {
			copy(blockKey[32:48], out)
		} else {
			copy(blockKey[16:32], out)
		}

		// Deliberately aliases the first byte of the post-slot: both
		// this counter bump and the slot overwrite above feed the next
		// block's digest.
		blockKey[32]++
	}
}

// EncryptedLength returns the ciphertext length produced by Encrypt
// for a plaintext of the given length.
func EncryptedLength(plaintextLen int) int {
	return ((plaintextLen + 31) / 16) * 16
}

// Encrypt produces a ciphertext of EncryptedLength(len(plaintext))
// bytes, using the given 16-byte key and 8-byte IV. The plaintext is
// length-prefixed and padded with PRNG bytes before two chained
// passes of the round engine are applied; the tail of the padded
// buffer (immediately following the first pass' region) doubles as
// the inner IV for that first pass.
func Encrypt(plaintext, key, iv []byte) []byte {
	if len(key) != KeySize {
		panic("sceda: key must be 16 bytes")
	}
	if len(iv) != IVSize {
		panic("sceda: iv must be 8 bytes")
	}

	l := len(plaintext)
	regionSize := ((l + 15) / 16) * 16
	total := regionSize + 16

	buf := make([]byte, total)

	temp := l
	for i := 6; i >= 0; i-- {
		buf[i] = byte(temp % 256)
		temp /= 256
	}

	copy(buf[7:7+l], plaintext)
	copy(buf[7+l:], shared.bytes(total-(7+l)))

	innerIV := buf[total-9 : total-1]
	firstPassBlocks := (l + 15) / 16
	g(buf[7:7+regionSize], buf[7:7+regionSize], firstPassBlocks, key, innerIV, false)

	reverseBytes(buf)

	g(buf, buf, total/16, key, iv, false)

	return buf
}

// Decrypt reverses Encrypt. ciphertext must be a multiple of 16
// bytes; ErrDecryptFailed is returned for malformed ciphertext or
// when the embedded length field is out of range (in particular, the
// expected result of decrypting with the wrong key or IV).
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	if len(key) != KeySize {
		panic("sceda: key must be 16 bytes")
	}
	if len(iv) != IVSize {
		panic("sceda: iv must be 8 bytes")
	}
	total := len(ciphertext)
	if total == 0 || total%16 != 0 {
		l.Debugln("decrypt: ciphertext length not a multiple of 16:", total)
		return nil, ErrDecryptFailed
	}

	buf := make([]byte, total)
	g(buf, ciphertext, total/16, key, iv, true)

	reverseBytes(buf)

	plaintextLen := 0
	for i := 0; i < 7; i++ {
		plaintextLen = plaintextLen*256 + int(buf[i])
	}
	if plaintextLen < 0 || plaintextLen > total-16 {
		l.Debugln("decrypt: embedded length out of range:", plaintextLen)
		return nil, ErrDecryptFailed
	}

	regionSize := ((plaintextLen + 15) / 16) * 16
	innerIV := buf[7+regionSize : 7+regionSize+8]
	blockCount := (plaintextLen + 15) / 16
	g(buf[7:7+regionSize], buf[7:7+regionSize], blockCount, key, innerIV, true)

	out := make([]byte, plaintextLen)
	copy(out, buf[7:7+plaintextLen])
	return out, nil
}

// GenerateKey returns a fresh 16-byte key drawn from the legacy PRNG.
func GenerateKey() []byte {
	return shared.bytes(KeySize)
}

// GenerateIV returns a fresh 8-byte IV drawn from the legacy PRNG.
func GenerateIV() []byte {
	return shared.bytes(IVSize)
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
