package messages

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// PlaceholderText is substituted for message text that fails to decrypt, so a
// single bad record never fails a list or send response.
const PlaceholderText = "[decryption failed]"

// ErrDecryptFailed indicates the ciphertext could not be authenticated with
// the key derived from the supplied group id.
var ErrDecryptFailed = errors.New("messages: decryption failed")

// Codec encrypts and decrypts message text with AES-256-GCM. The key is
// derived deterministically from the group id alone (SHA-256 digest), so any
// group member's client can decrypt without a key exchange. GCM authentication
// makes a wrong-group key a detectable failure rather than garbage output.
type Codec struct{}

// Encrypt seals the plaintext under the group key and returns the base64
// ciphertext and the base64 nonce used as the record's initialization vector.
func (Codec) Encrypt(plaintext, groupID string) (string, string, error) {
	if groupID == "" {
		return "", "", fmt.Errorf("messages: group id required for encryption")
	}

	aead, err := newGroupAEAD(groupID)
	if err != nil {
		return "", "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(nonce), nil
}

// Decrypt opens the ciphertext with the group key. A wrong key, truncated
// payload or malformed encoding all surface as ErrDecryptFailed.
func (Codec) Decrypt(ciphertext, iv, groupID string) (string, error) {
	aead, err := newGroupAEAD(groupID)
	if err != nil {
		return "", err
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryptFailed
	}
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil || len(nonce) != aead.NonceSize() {
		return "", ErrDecryptFailed
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

func newGroupAEAD(groupID string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(groupID))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
