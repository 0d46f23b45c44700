package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

const (
	SignatureHeader = "X-Signature-Ed25519"
	TimestampHeader = "X-Signature-Timestamp"
)

// Verifier checks Ed25519 request signatures over timestamp || body.
type Verifier struct {
	key ed25519.PublicKey
	err error
}

// NewVerifier parses a hex encoded public key. Key problems surface on every Verify call.
func NewVerifier(publicKeyHex string) Verifier {
	publicKeyHex = strings.TrimSpace(publicKeyHex)
	if publicKeyHex == "" {
		return Verifier{err: fmt.Errorf("%w: DISCORD_PUBLIC_KEY is not set", domain.ErrServerConfiguration)}
	}
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return Verifier{err: fmt.Errorf("%w: DISCORD_PUBLIC_KEY is not a valid ed25519 key", domain.ErrServerConfiguration)}
	}
	return Verifier{key: ed25519.PublicKey(raw)}
}

// Verify returns nil when signature is valid for timestamp and body.
func (v Verifier) Verify(signatureHex, timestamp string, body []byte) error {
	if v.err != nil {
		return v.err
	}
	if v.key == nil {
		return fmt.Errorf("%w: verifier has no public key", domain.ErrServerConfiguration)
	}
	signatureHex = strings.TrimSpace(signatureHex)
	timestamp = strings.TrimSpace(timestamp)
	if signatureHex == "" || timestamp == "" {
		return fmt.Errorf("%w: missing signature headers", domain.ErrUnauthenticated)
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: malformed signature", domain.ErrUnauthenticated)
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	if !ed25519.Verify(v.key, msg, sig) {
		return fmt.Errorf("%w: invalid request signature", domain.ErrUnauthenticated)
	}
	return nil
}
