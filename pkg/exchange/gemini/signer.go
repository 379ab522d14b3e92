package gemini

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"

	"marketfeed/internal/keyring"
	"marketfeed/pkg/core"
)

// Header names for signed requests.
const (
	headerPayload   = "X-GEMINI-PAYLOAD"
	headerAPIKey    = "X-GEMINI-APIKEY"
	headerSignature = "X-GEMINI-SIGNATURE"
)

// signedPayload is the canonical payload serialized into the signature.
// Field order matters: the encoded bytes must be reproducible for a fixed
// nonce.
type signedPayload struct {
	Request string `json:"request"`
	Nonce   int64  `json:"nonce"`
	Account string `json:"account,omitempty"`
}

// Signer builds the authentication headers for signed requests and
// sessions: a base64 JSON payload carrying the request path and a strictly
// increasing nonce, and an HMAC-SHA384 of that encoding keyed by the API
// secret, hex encoded.
type Signer struct {
	ring    *keyring.Ring
	account string
	nonce   func() int64
}

// NewSigner creates a Signer for a single credential set.
func NewSigner(creds *core.Credentials) *Signer {
	ring := keyring.New([]keyring.APIKey{{
		ID:     creds.APIKey,
		Secret: creds.SecretKey,
	}})
	return &Signer{
		ring:    ring,
		account: creds.Account,
		nonce:   clockNonce(),
	}
}

// NewSignerWithRing creates a Signer backed by a multi-key ring, letting
// the caller rotate keys on authentication failures.
func NewSignerWithRing(ring *keyring.Ring, account string) *Signer {
	return &Signer{
		ring:    ring,
		account: account,
		nonce:   clockNonce(),
	}
}

// WithNonce replaces the nonce source and returns the signer for chaining.
// Production signers derive nonces from the wall clock; tests inject a
// fixed source to pin signatures.
func (s *Signer) WithNonce(fn func() int64) *Signer {
	s.nonce = fn
	return s
}

// Headers signs the given request path and returns the authentication
// headers. For a fixed payload and nonce the output is byte-for-byte
// reproducible.
func (s *Signer) Headers(requestPath string) (map[string]string, error) {
	key := s.ring.Current()
	if key == nil {
		return nil, core.ErrNoCredentials
	}

	payload := signedPayload{
		Request: requestPath,
		Nonce:   s.nonce(),
		Account: s.account,
	}

	raw, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal signed payload: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(raw)

	mac := hmac.New(sha512.New384, []byte(key.Secret))
	mac.Write([]byte(encoded))
	signature := hex.EncodeToString(mac.Sum(nil))

	return map[string]string{
		headerPayload:   encoded,
		headerAPIKey:    key.ID,
		headerSignature: signature,
	}, nil
}

// MarkError reports an authentication failure against the active key so a
// multi-key ring can rotate away from it.
func (s *Signer) MarkError() {
	s.ring.MarkError()
}

// clockNonce returns a wall-clock millisecond nonce source that is strictly
// increasing even when called twice within the same millisecond.
func clockNonce() func() int64 {
	var last atomic.Int64
	return func() int64 {
		for {
			prev := last.Load()
			now := time.Now().UnixMilli()
			if now <= prev {
				now = prev + 1
			}
			if last.CompareAndSwap(prev, now) {
				return now
			}
		}
	}
}
