package gateway

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/sha3"
)

const signatureLength = 64

var (
	ErrProofMalformed     = errors.New("decryption proof malformed")
	ErrThresholdNotMet    = errors.New("decryption proof does not meet signer threshold")
	ErrUnknownProofSigner = errors.New("decryption proof carries an unknown signer")
)

// ProofVerifier checks threshold signatures on decryption callbacks. The
// proof blob is the only defense against a forged callback, so a request's
// cleartexts must never be trusted before Verify passes.
//
// Proof layout: 1-byte signer count, then count*64 bytes of ed25519
// signatures in signer-set order markers, then opaque extra data.
type ProofVerifier struct {
	signers   []ed25519.PublicKey
	threshold int
}

// NewProofVerifier parses the configured base58 signer keys
func NewProofVerifier(signerKeys []string, threshold int) (*ProofVerifier, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("signer threshold must be at least 1")
	}
	if len(signerKeys) < threshold {
		return nil, fmt.Errorf("need at least %d signer keys, got %d", threshold, len(signerKeys))
	}

	signers := make([]ed25519.PublicKey, 0, len(signerKeys))
	for _, key := range signerKeys {
		pub, err := solana.PublicKeyFromBase58(key)
		if err != nil {
			return nil, fmt.Errorf("invalid signer key %s: %w", key, err)
		}
		signers = append(signers, ed25519.PublicKey(pub.Bytes()))
	}

	return &ProofVerifier{signers: signers, threshold: threshold}, nil
}

// Verify checks that at least threshold distinct known signers signed the
// digest of this request's cleartexts.
func (v *ProofVerifier) Verify(requestID uint64, cleartexts, proof []byte) error {
	if len(proof) < 1 {
		return ErrProofMalformed
	}

	numSigners := int(proof[0])
	if len(proof) < 1+numSigners*signatureLength {
		return ErrProofMalformed
	}

	digest := CallbackDigest(requestID, cleartexts)

	seen := make(map[int]bool)
	valid := 0
	for i := 0; i < numSigners; i++ {
		sig := proof[1+i*signatureLength : 1+(i+1)*signatureLength]

		matched := -1
		for idx, pub := range v.signers {
			if seen[idx] {
				continue
			}
			if ed25519.Verify(pub, digest, sig) {
				matched = idx
				break
			}
		}
		if matched < 0 {
			return ErrUnknownProofSigner
		}
		seen[matched] = true
		valid++
	}

	if valid < v.threshold {
		return fmt.Errorf("%w: %d of %d", ErrThresholdNotMet, valid, v.threshold)
	}
	return nil
}

// CallbackDigest is the message the gateway signers commit to: the request
// id bound to the exact cleartext blob.
func CallbackDigest(requestID uint64, cleartexts []byte) []byte {
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], requestID)

	hash := sha3.NewLegacyKeccak256()
	hash.Write(idBytes[:])
	hash.Write(cleartexts)
	return hash.Sum(nil)
}
