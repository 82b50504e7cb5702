package binary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier checks downloaded artifacts against what the release index
// publishes. Both checks are optional: an asset without a sha256 or signature
// falls back to the size heuristic alone.
type Verifier struct {
	keyringPath string
}

// NewVerifier creates a verifier. An empty keyringPath disables signature
// checks.
func NewVerifier(keyringPath string) *Verifier {
	return &Verifier{keyringPath: keyringPath}
}

// CanVerifySignature reports whether a keyring is configured and present.
func (v *Verifier) CanVerifySignature() bool {
	return v.keyringPath != "" && fileExists(v.keyringPath)
}

// VerifySHA256 compares the file's digest with expected (hex, any case).
func (v *Verifier) VerifySHA256(binaryPath, expected string) (*VerificationResult, error) {
	actual, err := calculateSHA256(binaryPath)
	if err != nil {
		err = fmt.Errorf("calculate checksum: %w", err)
		return &VerificationResult{Method: VerificationSHA256, Error: err}, err
	}

	if !strings.EqualFold(actual, expected) {
		err := fmt.Errorf("%w: checksum mismatch:\nactual:   %s\nexpected: %s",
			ErrVerification, actual, expected)
		return &VerificationResult{Method: VerificationSHA256, Error: err}, err
	}

	return &VerificationResult{Method: VerificationSHA256, Success: true}, nil
}

// VerifySignature checks a detached signature (armored or binary) over the
// file using the configured keyring.
func (v *Verifier) VerifySignature(binaryPath, signaturePath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationGPG, Error: err}, err
	}

	keyring, err := v.loadKeyring()
	if err != nil {
		return fail(fmt.Errorf("load keyring: %w", err))
	}

	binaryFile, err := os.Open(binaryPath)
	if err != nil {
		return fail(fmt.Errorf("open binary: %w", err))
	}
	defer binaryFile.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return fail(fmt.Errorf("open signature: %w", err))
	}
	defer sigFile.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, binaryFile, sigFile, nil)
	if err != nil {
		// Try non-armored signature
		if _, serr := binaryFile.Seek(0, io.SeekStart); serr != nil {
			return fail(serr)
		}
		if _, serr := sigFile.Seek(0, io.SeekStart); serr != nil {
			return fail(serr)
		}
		_, err = openpgp.CheckDetachedSignature(keyring, binaryFile, sigFile, nil)
	}
	if err != nil {
		return fail(fmt.Errorf("%w: verify signature: %v", ErrVerification, err))
	}

	return &VerificationResult{Method: VerificationGPG, Success: true}, nil
}

// loadKeyring reads the keyring, armored first.
func (v *Verifier) loadKeyring() (openpgp.EntityList, error) {
	keyringFile, err := os.Open(v.keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		if _, serr := keyringFile.Seek(0, io.SeekStart); serr != nil {
			return nil, serr
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
