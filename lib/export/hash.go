package export

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/hkdf"
)

const hashInfo = "hxgrid-export-v1"

// HashInput is the set of values protected by the export hash. The same
// values are rendered into the export form and posted back on download.
type HashInput struct {
	Module   string
	Filename string
	MIME     string
	Encoding string
	BOM      bool
	// Config is the serialized format config exactly as sent to the client.
	Config string
}

func (in HashInput) tuple() []any {
	return []any{in.Module, in.Filename, in.MIME, in.Encoding, in.BOM, in.Config}
}

// Hash returns the hex encoded HMAC-SHA256 of in. The MAC key is derived
// from salt so a leaked hash reveals nothing reusable about the salt.
func Hash(salt []byte, in HashInput) (string, error) {
	key, err := deriveKey(salt)
	if err != nil {
		return "", err
	}
	packed, err := msgpack.Marshal(in.tuple())
	if err != nil {
		return "", fmt.Errorf("export: encode hash input: %w", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(packed)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the hash of in and compares it with got in constant
// time. It returns ErrHashMismatch when they differ.
func Verify(salt []byte, in HashInput, got string) error {
	want, err := Hash(salt, in)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(got)) {
		return ErrHashMismatch
	}
	return nil
}

func deriveKey(salt []byte) ([]byte, error) {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, salt, nil, []byte(hashInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("export: derive key: %w", err)
	}
	return key, nil
}

// ConfigJSON serializes a format config. Map keys are sorted, so equal
// configs always produce the same string.
func ConfigJSON(config map[string]any) (string, error) {
	if len(config) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("export: encode config: %w", err)
	}
	return string(b), nil
}
