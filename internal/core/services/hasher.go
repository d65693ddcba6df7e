package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const hashChunkSize = 256 * 1024

// AssetHasher computes content hashes of files
type AssetHasher struct{}

func NewAssetHasher() *AssetHasher {
	return &AssetHasher{}
}

// Hash streams the file through SHA-256, checking ctx between chunks
func (h *AssetHasher) Hash(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, hashChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := f.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashWithSize returns the hash and the number of bytes hashed
func (h *AssetHasher) HashWithSize(ctx context.Context, path string) (string, int64, error) {
	hash, err := h.Hash(ctx, path)
	if err != nil {
		return "", 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return hash, info.Size(), nil
}
