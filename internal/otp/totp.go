// Package otp wraps TOTP generation and validation and handles backup codes.
package otp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP time step in seconds.
	Period = 30
	// SecretSize is the secret length in bytes (160 bit).
	SecretSize = 20
	// MaxSkew bounds the accepted clock drift in steps on either side.
	MaxSkew = 2
)

// TOTP generates and validates RFC 6238 codes: HMAC-SHA1, 6 digits, 30 second step.
type TOTP struct {
	issuer string
	skew   uint
}

// NewTOTP creates TOTP manager. Skew above MaxSkew is clamped.
func NewTOTP(issuer string, skew uint) *TOTP {
	if skew > MaxSkew {
		skew = MaxSkew
	}
	return &TOTP{
		issuer: issuer,
		skew:   skew,
	}
}

// GenerateSecret creates a random Base32 secret and its otpauth provisioning URI.
func (t *TOTP) GenerateSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: accountName,
		Period:      Period,
		SecretSize:  SecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate totp key: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

// Validate reports whether code is valid for secret at now.
// The underlying comparison is constant time.
func (t *TOTP) Validate(code, secret string, now time.Time) bool {
	if code == "" || secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, now, t.opts())
	if err != nil {
		return false
	}
	return ok
}

func (t *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Skew:      t.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
