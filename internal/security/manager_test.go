package security

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/plantcare/internal/model"
)

func newTestManager(t *testing.T, key string) *Manager {
	t.Helper()
	m, err := NewManager(key)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestNewManager_EmptyKey_ReturnsError(t *testing.T) {
	if _, err := NewManager(""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestNewManager_AcceptsPreformattedKey(t *testing.T) {
	// 32バイト鍵のurlsafe base64表現（44文字、"=="終端）
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	key := base64.URLEncoding.EncodeToString(raw)
	if len(key) != 44 || !strings.HasSuffix(key, "==") {
		t.Fatalf("test key has unexpected format: %q", key)
	}

	m := newTestManager(t, key)

	ciphertext, err := m.EncryptValue("hello")
	if err != nil {
		t.Fatalf("EncryptValue() error = %v", err)
	}
	plaintext, err := m.DecryptValue(ciphertext)
	if err != nil {
		t.Fatalf("DecryptValue() error = %v", err)
	}
	if plaintext != "hello" {
		t.Errorf("round trip = %q, want %q", plaintext, "hello")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	m := newTestManager(t, "arbitrary-secret-string")

	inputs := []string{
		"user@example.com",
		"植物太郎",
		"+81-90-1234-5678",
		"a",
		strings.Repeat("x", 4096),
	}

	for _, input := range inputs {
		ciphertext, err := m.EncryptValue(input)
		if err != nil {
			t.Fatalf("EncryptValue(%q) error = %v", input, err)
		}
		if ciphertext == input {
			t.Errorf("ciphertext equals plaintext for %q", input)
		}

		plaintext, err := m.DecryptValue(ciphertext)
		if err != nil {
			t.Fatalf("DecryptValue() error = %v", err)
		}
		if plaintext != input {
			t.Errorf("round trip = %q, want %q", plaintext, input)
		}
	}
}

func TestEncryptValue_NonDeterministic(t *testing.T) {
	m := newTestManager(t, "arbitrary-secret-string")

	c1, err := m.EncryptValue("user@example.com")
	if err != nil {
		t.Fatalf("EncryptValue() error = %v", err)
	}
	c2, err := m.EncryptValue("user@example.com")
	if err != nil {
		t.Fatalf("EncryptValue() error = %v", err)
	}

	// nonceがランダムであるため暗号文は毎回異なる
	if c1 == c2 {
		t.Error("expected distinct ciphertexts for repeated encryption")
	}
}

func TestHashValue_Deterministic(t *testing.T) {
	m1 := newTestManager(t, "key-one")
	m2 := newTestManager(t, "key-two")

	h1 := m1.HashValue("user@example.com")
	h2 := m1.HashValue("user@example.com")
	if h1 != h2 {
		t.Errorf("HashValue not deterministic: %q != %q", h1, h2)
	}

	// ハッシュは鍵に依存しない（プロセス再起動・鍵ローテーション後も検索可能）
	if h1 != m2.HashValue("user@example.com") {
		t.Error("HashValue depends on encryption key")
	}

	// 固定長のhexダイジェスト
	if len(h1) != 64 {
		t.Errorf("digest length = %d, want 64", len(h1))
	}
}

func TestHashValue_DistinctInputs(t *testing.T) {
	m := newTestManager(t, "arbitrary-secret-string")

	if m.HashValue("a@x.com") == m.HashValue("b@x.com") {
		t.Error("distinct inputs produced identical digests")
	}
}

func TestEmptyValue_PassesThrough(t *testing.T) {
	m := newTestManager(t, "arbitrary-secret-string")

	if got := m.HashValue(""); got != "" {
		t.Errorf("HashValue(\"\") = %q, want empty", got)
	}

	ciphertext, err := m.EncryptValue("")
	if err != nil {
		t.Fatalf("EncryptValue(\"\") error = %v", err)
	}
	if ciphertext != "" {
		t.Errorf("EncryptValue(\"\") = %q, want empty", ciphertext)
	}

	plaintext, err := m.DecryptValue("")
	if err != nil {
		t.Fatalf("DecryptValue(\"\") error = %v", err)
	}
	if plaintext != "" {
		t.Errorf("DecryptValue(\"\") = %q, want empty", plaintext)
	}
}

func TestDecryptValue_ForeignKey_ReturnsCryptoError(t *testing.T) {
	m1 := newTestManager(t, "key-one")
	m2 := newTestManager(t, "key-two")

	ciphertext, err := m1.EncryptValue("user@example.com")
	if err != nil {
		t.Fatalf("EncryptValue() error = %v", err)
	}

	_, err = m2.DecryptValue(ciphertext)
	assertCryptoError(t, err)
}

func TestDecryptValue_MalformedInput_ReturnsCryptoError(t *testing.T) {
	m := newTestManager(t, "arbitrary-secret-string")

	cases := []struct {
		name  string
		input string
	}{
		{"invalid base64", "not-valid-base64!!!"},
		{"too short", base64.URLEncoding.EncodeToString([]byte("abc"))},
		{"random bytes", base64.URLEncoding.EncodeToString(make([]byte, 48))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.DecryptValue(tc.input)
			assertCryptoError(t, err)
		})
	}
}

func TestDecryptValue_TruncatedCiphertext_ReturnsCryptoError(t *testing.T) {
	m := newTestManager(t, "arbitrary-secret-string")

	ciphertext, err := m.EncryptValue("user@example.com")
	if err != nil {
		t.Fatalf("EncryptValue() error = %v", err)
	}

	data, _ := base64.URLEncoding.DecodeString(ciphertext)
	truncated := base64.URLEncoding.EncodeToString(data[:len(data)-4])

	_, err = m.DecryptValue(truncated)
	assertCryptoError(t, err)
}

func TestSeal_HashAndCiphertextAgree(t *testing.T) {
	m := newTestManager(t, "arbitrary-secret-string")

	sealed, err := m.Seal("user@example.com")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if sealed.Hash != m.HashValue("user@example.com") {
		t.Error("sealed hash does not match HashValue")
	}

	plaintext, err := m.DecryptValue(sealed.Ciphertext)
	if err != nil {
		t.Fatalf("DecryptValue() error = %v", err)
	}
	if plaintext != "user@example.com" {
		t.Errorf("sealed ciphertext decrypts to %q, want %q", plaintext, "user@example.com")
	}
}

func TestSeal_EmptyValue(t *testing.T) {
	m := newTestManager(t, "arbitrary-secret-string")

	sealed, err := m.Seal("")
	if err != nil {
		t.Fatalf("Seal(\"\") error = %v", err)
	}
	if sealed.Hash != "" || sealed.Ciphertext != "" {
		t.Errorf("Seal(\"\") = %+v, want empty pair", sealed)
	}
}

// assertCryptoError はエラーがCRYPTO_ERRORコードのAPIErrorであることを検証する。
func assertCryptoError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeCryptoFailure {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeCryptoFailure)
	}
}
