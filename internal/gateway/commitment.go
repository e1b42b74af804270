package gateway

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

const cleartextWordLength = 32

var ErrCleartextShape = errors.New("cleartext blob has unexpected shape")

// DeriveCommitment computes the binding fingerprint of a bet submission:
// keccak256 over the two encrypted handles and the bettor's public key.
// Identical submissions from the same bettor always collide, which is what
// makes the fingerprint usable for replay rejection.
func DeriveCommitment(outcomeHandle, stakeHandle, bettor string) (string, error) {
	outcomeBytes, err := decodeHandle(outcomeHandle)
	if err != nil {
		return "", fmt.Errorf("invalid outcome handle: %w", err)
	}
	stakeBytes, err := decodeHandle(stakeHandle)
	if err != nil {
		return "", fmt.Errorf("invalid stake handle: %w", err)
	}
	bettorBytes, err := base58.Decode(bettor)
	if err != nil {
		return "", fmt.Errorf("invalid bettor address: %w", err)
	}

	hash := sha3.NewLegacyKeccak256()
	hash.Write(outcomeBytes)
	hash.Write(stakeBytes)
	hash.Write(bettorBytes)
	return "0x" + hex.EncodeToString(hash.Sum(nil)), nil
}

// DecodeCleartextWords decodes a cleartext blob of n 32-byte big-endian
// words into uint64 values, rejecting words that overflow 64 bits.
func DecodeCleartextWords(cleartexts []byte, n int) ([]uint64, error) {
	if len(cleartexts) != n*cleartextWordLength {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrCleartextShape, len(cleartexts), n*cleartextWordLength)
	}

	values := make([]uint64, n)
	for i := 0; i < n; i++ {
		word := cleartexts[i*cleartextWordLength : (i+1)*cleartextWordLength]
		for _, b := range word[:cleartextWordLength-8] {
			if b != 0 {
				return nil, fmt.Errorf("%w: word %d overflows uint64", ErrCleartextShape, i)
			}
		}
		values[i] = binary.BigEndian.Uint64(word[cleartextWordLength-8:])
	}
	return values, nil
}

func decodeHandle(handle string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(handle, "0x"))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("empty handle")
	}
	return raw, nil
}
