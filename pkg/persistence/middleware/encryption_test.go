package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/persistence/middleware"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func newState() *domain.SessionState {
	return domain.NewSessionState("enc", domain.TransactionRequest{
		Mode: domain.ModeTill, Till: "5544", Amount: "90", AuthCode: "4321",
	})
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSessionStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)
	ctx := context.Background()

	original := newState()
	if err := secureStore.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if original.AuthCode != "4321" {
		t.Fatalf("Save must not modify the caller's state, got %q", original.AuthCode)
	}

	// The underlying store only ever sees ciphertext.
	stored, err := underlyingStore.Load(ctx)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if strings.Contains(stored.AuthCode, "4321") || !strings.HasPrefix(stored.AuthCode, "enc:v1:") {
		t.Fatalf("Expected sealed auth code, found: %q", stored.AuthCode)
	}
	if stored.Till != "5544" {
		t.Errorf("Expected non-secret fields to stay readable, got till %q", stored.Till)
	}

	loaded, err := secureStore.Load(ctx)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.AuthCode != "4321" {
		t.Errorf("Expected '4321', got %q", loaded.AuthCode)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	if err := secureStoreOld.Save(ctx, newState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := rotated.Load(ctx)
	if err != nil {
		t.Fatalf("Load with fallback key failed: %v", err)
	}
	if loaded.AuthCode != "4321" {
		t.Errorf("Expected '4321', got %q", loaded.AuthCode)
	}

	newOnly := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlyingStore)
	if _, err := newOnly.Load(ctx); err == nil {
		t.Fatal("Expected decryption to fail without the old key")
	}
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, newState()); err != nil {
		t.Fatal(err)
	}

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx); !errors.Is(err, middleware.ErrPlaintextSecret) {
		t.Fatalf("Expected ErrPlaintextSecret, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic for short key")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	parsed, err := middleware.ParseKey(" " + hex.EncodeToString(key) + "\n")
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if string(parsed) != string(key) {
		t.Fatal("ParseKey returned a different key")
	}
	if _, err := middleware.ParseKey("abcd"); err == nil {
		t.Fatal("Expected error for short key")
	}
	if _, err := middleware.ParseKey("zz"); err == nil {
		t.Fatal("Expected error for non-hex key")
	}
}

func TestChain_OutermostFirst(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SessionStore) ports.SessionStore {
			return recordingStore{SessionStore: next, name: name, order: &order}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	if err := store.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "outer,inner" {
		t.Fatalf("unexpected order %v", order)
	}
}

type recordingStore struct {
	ports.SessionStore
	name  string
	order *[]string
}

func (r recordingStore) Clear(ctx context.Context) error {
	*r.order = append(*r.order, r.name)
	return r.SessionStore.Clear(ctx)
}
