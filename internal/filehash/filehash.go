// Package filehash computes the digests recorded for uploaded mod files.
package filehash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	curseforgeFingerprint "github.com/meza/curseforge-fingerprint-go"
	"github.com/spf13/afero"
)

const chunkSize = 32 * 1024

// Digest is what the hash command reports for one file.
type Digest struct {
	Path        string `json:"path"`
	SHA256      string `json:"sha256"`
	Fingerprint uint32 `json:"curseforge_fingerprint,omitempty"`
	Size        int64  `json:"size"`
}

type Hasher struct {
	fs          afero.Fs
	fingerprint func(string) uint32
}

func NewHasher(fs afero.Fs) *Hasher {
	return &Hasher{fs: fs, fingerprint: curseforgeFingerprint.GetFingerprintFor}
}

// SHA256 streams the file and returns its lowercase hex digest.
func (hasher *Hasher) SHA256(ctx context.Context, path string) (string, int64, error) {
	file, err := hasher.fs.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	digest := sha256.New()
	buf := make([]byte, chunkSize)
	var size int64
	for {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		n, readErr := file.Read(buf)
		if n > 0 {
			_, _ = digest.Write(buf[:n])
			size += int64(n)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return "", 0, fmt.Errorf("failed to read %s: %w", path, readErr)
		}
	}
	return hex.EncodeToString(digest.Sum(nil)), size, nil
}

// Digest hashes the file. The CurseForge fingerprint reads from the real
// filesystem, so it is only taken when withFingerprint is set.
func (hasher *Hasher) Digest(ctx context.Context, path string, withFingerprint bool) (Digest, error) {
	sum, size, err := hasher.SHA256(ctx, path)
	if err != nil {
		return Digest{}, err
	}
	digest := Digest{Path: path, SHA256: sum, Size: size}
	if withFingerprint {
		digest.Fingerprint = hasher.fingerprint(path)
	}
	return digest, nil
}
