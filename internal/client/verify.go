package client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jroosing/zonepress/internal/content"
	"github.com/jroosing/zonepress/internal/records"
)

// ErrUnsupportedHashAlgorithm is returned by CheckAlgorithm for algorithms the
// digester cannot compute.
var ErrUnsupportedHashAlgorithm = errors.New("unsupported hash algorithm")

// Digester is the digest capability of the environment the client runs in.
// A reader in a restricted environment may have none.
type Digester interface {
	// Available reports whether digests can be computed at all.
	Available() bool
	// Digest returns the raw digest of data under the named algorithm.
	Digest(ctx context.Context, algorithm string, data []byte) ([]byte, error)
}

// StdDigester computes digests with the Go standard library hashes.
type StdDigester struct{}

// Available always reports true.
func (StdDigester) Available() bool { return true }

// Digest computes the digest of data.
func (StdDigester) Digest(ctx context.Context, algorithm string, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alg, err := content.LookupAlgorithm(algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedHashAlgorithm, err)
	}
	return alg.Sum(data), nil
}

// Verifier checks reassembled content against the hash published in its
// metadata record.
//
// Verification is an optional trust indicator: any precondition failure
// (no digester, unsupported algorithm, digest error) yields "unverified"
// without an error.
type Verifier struct {
	Digester Digester
	Logger   *slog.Logger
}

// NewVerifier returns a Verifier; a nil digester means no digest capability.
func NewVerifier(d Digester, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{Digester: d, Logger: logger}
}

// CheckAlgorithm reports whether the verifier can check the given algorithm.
func (v *Verifier) CheckAlgorithm(ctx context.Context, algorithm string) error {
	if v.Digester == nil || !v.Digester.Available() {
		return fmt.Errorf("%w: no digest capability", ErrUnsupportedHashAlgorithm)
	}
	if algorithm == "" {
		return fmt.Errorf("%w: metadata record names no algorithm", ErrUnsupportedHashAlgorithm)
	}
	if _, err := v.Digester.Digest(ctx, algorithm, nil); err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedHashAlgorithm, algorithm)
	}
	return nil
}

// Verify reports whether body hashes to ix.Hash under ix.HashAlgorithm.
func (v *Verifier) Verify(ctx context.Context, body []byte, ix records.Index) bool {
	if err := v.CheckAlgorithm(ctx, ix.HashAlgorithm); err != nil {
		v.logger().Debug("verification skipped", "error", err)
		return false
	}
	sum, err := v.Digester.Digest(ctx, ix.HashAlgorithm, body)
	if err != nil {
		v.logger().Debug("verification skipped", "algorithm", ix.HashAlgorithm, "error", err)
		return false
	}
	return hex.EncodeToString(sum) == strings.ToLower(ix.Hash)
}

func (v *Verifier) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.Default()
	}
	return v.Logger
}
