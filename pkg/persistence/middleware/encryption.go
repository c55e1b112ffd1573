package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/ports"
)

// EncryptionConfig lists the AES-256 keys of an encrypted store.
type EncryptionConfig struct {
	// ActiveKey seals every saved conversation. It must be 32 bytes.
	ActiveKey []byte

	// FallbackKeys open conversations sealed before a key rotation.
	FallbackKeys [][]byte
}

// envelopePrefix marks an Artifact that carries the encrypted conversation.
const envelopePrefix = "enc:v1:"

// ErrNotEncrypted is returned when a stored session is not an encryption envelope.
var ErrNotEncrypted = errors.New("state is missing encrypted data envelope")

var errNoMatchingKey = errors.New("no configured key opens the envelope")

type encryptionMiddleware struct {
	next ports.StateStore
	// keys[0] is the active key.
	keys []cipher.AEAD
}

// NewEncryptionMiddleware seals each conversation with AES-256-GCM inside an envelope state
// that only exposes its session ID and timestamps. It panics on any key that is not 32 bytes.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	keys := make([]cipher.AEAD, 0, 1+len(config.FallbackKeys))
	for i, raw := range append([][]byte{config.ActiveKey}, config.FallbackKeys...) {
		aead, err := newAEAD(raw)
		if err != nil {
			if i == 0 {
				panic("active key must be 32 bytes (AES-256)")
			}
			panic(fmt.Sprintf("fallback key %d must be 32 bytes (AES-256)", i-1))
		}
		keys = append(keys, aead)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptionMiddleware{next: next, keys: keys}
	}
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, aes.KeySizeError(len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	plain, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	sealed, err := m.seal(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}

	envelope := domain.NewState(state.SessionID)
	envelope.CreatedAt = state.CreatedAt
	envelope.UpdatedAt = state.UpdatedAt
	envelope.Artifact = envelopePrefix + base64.StdEncoding.EncodeToString(sealed)
	return m.next.Save(ctx, sessionID, envelope)
}

// Load refuses plain sessions instead of passing them through.
func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	encoded, ok := strings.CutPrefix(envelope.Artifact, envelopePrefix)
	if !ok {
		return nil, ErrNotEncrypted
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	plain, err := m.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(plain, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted state: %w", err)
	}
	return &state, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// seal returns nonce || ciphertext under the active key.
func (m *encryptionMiddleware) seal(plain []byte) ([]byte, error) {
	active := m.keys[0]
	nonce := make([]byte, active.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return active.Seal(nonce, nonce, plain, nil), nil
}

func (m *encryptionMiddleware) open(sealed []byte) ([]byte, error) {
	for _, aead := range m.keys {
		size := aead.NonceSize()
		if len(sealed) < size {
			continue
		}
		if plain, err := aead.Open(nil, sealed[:size], sealed[size:], nil); err == nil {
			return plain, nil
		}
	}
	return nil, errNoMatchingKey
}

// ParseKey decodes an AES-256 key given as 64 hex characters or as base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) == 64 {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes, as 64 hex characters or base64")
	}
	return key, nil
}
