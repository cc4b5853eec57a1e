package cupomcrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// CupomCrypt encrypts receipt photos at rest. The stored blob is the
// GCM nonce followed by the ciphertext.
type CupomCrypt struct {
	gcm cipher.AEAD
}

func New(passphrase string) (*CupomCrypt, error) {
	dk := pbkdf2.Key([]byte(passphrase), nil, 4096, 32, sha1.New)

	c, err := aes.NewCipher(dk)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}

	return &CupomCrypt{gcm: gcm}, nil
}

func (c *CupomCrypt) Encrypt(input io.Reader) (io.ReadSeeker, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	plainText, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}

	cipherText := c.gcm.Seal(nil, nonce, plainText, nil)

	var finalBytes []byte
	finalBytes = append(finalBytes, nonce...)
	finalBytes = append(finalBytes, cipherText...)
	return bytes.NewReader(finalBytes), nil
}

func (c *CupomCrypt) Decrypt(objReader io.Reader) (io.ReadSeeker, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(objReader, nonce); err != nil {
		return nil, err
	}

	cipherTextBuffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(cipherTextBuffer, objReader); err != nil {
		return nil, err
	}

	plainText, err := c.gcm.Open(nil, nonce, cipherTextBuffer.Bytes(), nil)
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(plainText), nil
}
