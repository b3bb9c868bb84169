package metadata

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint is a stable identity for a document's bytes, used to key
// reader state so it survives renames and moves.
type Fingerprint [16]byte

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// FingerprintReader hashes the full contents of r.
func FingerprintReader(r io.Reader) (Fingerprint, error) {
	var fp Fingerprint
	h, err := blake2b.New(len(fp), nil)
	if err != nil {
		return fp, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return fp, fmt.Errorf("fingerprint: %w", err)
	}
	copy(fp[:], h.Sum(nil))
	return fp, nil
}

// FingerprintFile hashes the file at path.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, err
	}
	defer f.Close()
	return FingerprintReader(f)
}
