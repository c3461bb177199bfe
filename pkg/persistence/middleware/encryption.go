package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
)

const sealPrefix = "sealed:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new events.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables key rotation without rewriting stored games.
	FallbackKeys [][]byte
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid encryption key: %d bytes, want 32", len(key))
	}
	return key, nil
}

type encryptionMiddleware struct {
	next   ports.EventStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals every non-public
// event with AES-GCM before it reaches the store. A sealed event keeps its
// Seq, Round, Phase, Type and Visibility readable; everything else, recipients
// included, travels in the ciphertext. Public events are stored as they are.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.EventStore) ports.EventStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Append(ctx context.Context, gameID string, events ...domain.Event) error {
	sealed := make([]domain.Event, len(events))
	for i, evt := range events {
		if evt.Visibility == domain.VisibilityPublic {
			sealed[i] = evt
			continue
		}
		plainText, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %d: %w", evt.Seq, err)
		}
		ciphertext, err := encrypt(plainText, m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt event %d: %w", evt.Seq, err)
		}
		envelope := domain.NewEvent(evt.Type, evt.Visibility)
		envelope.Seq = evt.Seq
		envelope.Round = evt.Round
		envelope.Phase = evt.Phase
		envelope.Text = sealPrefix + base64.StdEncoding.EncodeToString(ciphertext)
		sealed[i] = envelope
	}
	return m.next.Append(ctx, gameID, sealed...)
}

func (m *encryptionMiddleware) Load(ctx context.Context, gameID string) ([]domain.Event, error) {
	events, err := m.next.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for i, envelope := range events {
		if envelope.Visibility == domain.VisibilityPublic {
			continue
		}
		encoded, ok := strings.CutPrefix(envelope.Text, sealPrefix)
		if !ok {
			// Fail secure: a hidden event stored in the clear means the log was not written by us.
			return nil, fmt.Errorf("event %d is missing its encrypted envelope", envelope.Seq)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext of event %d: %w", envelope.Seq, err)
		}
		plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt event %d: %w", envelope.Seq, err)
		}
		var evt domain.Event
		if err := json.Unmarshal(plainText, &evt); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event %d: %w", envelope.Seq, err)
		}
		if evt.Seq != envelope.Seq {
			return nil, fmt.Errorf("event %d carries the ciphertext of event %d", envelope.Seq, evt.Seq)
		}
		events[i] = evt
	}
	return events, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, gameID string) error {
	return m.next.Delete(ctx, gameID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
