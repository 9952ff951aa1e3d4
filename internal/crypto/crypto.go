package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// DevelopmentKey is used when no encryption secret is configured.
// Changing it would break credentials already encrypted with it.
const DevelopmentKey = "development-key-32-characters!!"

const keySize = 32

// Cipher encrypts and decrypts SIIGO credentials for at-rest storage.
// Output format is ivHex:cipherHex with a fresh random IV per call, so
// two encryptions of the same plaintext never compare equal.
type Cipher struct {
	key []byte
}

// New builds a Cipher from the configured secret. The secret is
// right-padded with '0' and truncated to exactly 32 bytes. An empty
// secret falls back to DevelopmentKey.
func New(secret string) *Cipher {
	if secret == "" {
		log.Warn().Msg("ENCRYPTION_KEY not set, using development key")
		secret = DevelopmentKey
	}
	return &Cipher{key: normalizeKey(secret)}
}

func normalizeKey(secret string) []byte {
	if len(secret) < keySize {
		secret += strings.Repeat("0", keySize-len(secret))
	}
	return []byte(secret[:keySize])
}

// Encrypt returns ivHex:cipherHex for the given plaintext. It never
// fails: on any internal error it degrades to plain base64, which
// Decrypt understands as the legacy format.
func (c *Cipher) Encrypt(plaintext string) string {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		log.Error().Err(err).Msg("Encryption failed, storing base64 fallback")
		return base64.StdEncoding.EncodeToString([]byte(plaintext))
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		log.Error().Err(err).Msg("Encryption failed, storing base64 fallback")
		return base64.StdEncoding.EncodeToString([]byte(plaintext))
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(encrypted)
}

// Decrypt reverses Encrypt. Input without the ivHex:cipherHex separator
// is treated as legacy base64; anything that cannot be decoded comes
// back unchanged. Callers must not rely on Decrypt to reject malformed
// ciphertext.
func (c *Cipher) Decrypt(encrypted string) string {
	parts := strings.SplitN(encrypted, ":", 2)
	if len(parts) != 2 {
		decoded, err := base64.StdEncoding.DecodeString(encrypted)
		if err != nil {
			return encrypted
		}
		return string(decoded)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		log.Error().Msg("Decryption failed: malformed IV")
		return encrypted
	}
	data, err := hex.DecodeString(parts[1])
	if err != nil || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		log.Error().Msg("Decryption failed: malformed ciphertext")
		return encrypted
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		log.Error().Err(err).Msg("Decryption failed")
		return encrypted
	}

	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, data)

	unpadded, ok := pkcs7Unpad(plaintext, aes.BlockSize)
	if !ok {
		log.Error().Msg("Decryption failed: bad padding")
		return encrypted
	}
	return string(unpadded)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
