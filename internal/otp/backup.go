package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// BackupCodeCount is the number of codes in a batch.
	BackupCodeCount = 8
	// BackupCodeLength is the number of characters per code.
	BackupCodeLength = 8
	// BackupCodeAlphabet omits I, O, 0 and 1.
	BackupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateBackupCodes returns a fresh batch of plaintext backup codes.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, BackupCodeCount)
	buf := make([]byte, BackupCodeLength)
	for i := range codes {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to read random bytes: %w", err)
		}
		code := make([]byte, BackupCodeLength)
		for j, b := range buf {
			// 256 is a multiple of len(alphabet), so masking keeps the draw uniform.
			code[j] = BackupCodeAlphabet[int(b)&(len(BackupCodeAlphabet)-1)]
		}
		codes[i] = string(code)
	}
	return codes, nil
}

// NormalizeBackupCode strips separators and upper-cases code.
func NormalizeBackupCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.NewReplacer(" ", "", "-", "").Replace(code)
}

// HashBackupCode returns the hex SHA-256 digest of the normalized code.
func HashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(NormalizeBackupCode(code)))
	return hex.EncodeToString(sum[:])
}

// HashBackupCodes hashes every code in codes.
func HashBackupCodes(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = HashBackupCode(c)
	}
	return hashes
}

// MatchBackupCode looks code up among hashes and returns its index.
// Every digest is compared so the time spent does not depend on the position.
func MatchBackupCode(hashes []string, code string) (int, bool) {
	normalized := NormalizeBackupCode(code)
	if len(normalized) != BackupCodeLength {
		return -1, false
	}
	candidate := []byte(HashBackupCode(normalized))

	idx := -1
	for i, h := range hashes {
		if subtle.ConstantTimeCompare([]byte(h), candidate) == 1 && idx < 0 {
			idx = i
		}
	}
	return idx, idx >= 0
}
