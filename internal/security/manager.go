// Package security は機微フィールドの保護に使う暗号プリミティブを提供する。
//
// 等価検索が必要なフィールドに対しては決定的なSHA-256ダイジェスト（検索キー）と
// AES-256-GCMによる認証付き暗号文（保管・表示用）のペアを導出する。
// ダイジェストは検索可能性のために意図的に無塩とする。入力は典型的には
// メールアドレスであり低エントロピーの秘密ではない、というトレードオフを受け入れる。
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/hitoshi/plantcare/internal/model"
)

// fernetKeyLength はurlsafe base64でエンコードされた32バイト鍵の文字列長。
const fernetKeyLength = 44

// Manager は機微フィールドのハッシュ化・暗号化・復号を提供する。
// プロセス起動時に1度だけ生成し、依存として各サービスへ注入する。
// 並行利用に対して安全。
type Manager struct {
	aead cipher.AEAD
}

// SealedValue は1つの平文から原子的に導出されたハッシュと暗号文のペア。
// 両方を同一トランザクションで書き込むこと。片方だけの保存は不整合となる。
type SealedValue struct {
	Hash       string
	Ciphertext string
}

// NewManager は設定された秘密文字列からManagerを生成する。
//
// keyStringが32バイト鍵のurlsafe base64表現（44文字、"=="終端）であれば
// そのまま復号して使用する。それ以外の任意の文字列はSHA-256で32バイトへ
// 決定的に引き伸ばす。これにより設定値の形式に関わらず暗号器が不正な鍵を
// 受け取ることはない。
func NewManager(keyString string) (*Manager, error) {
	if keyString == "" {
		return nil, fmt.Errorf("encryption key is empty")
	}

	key := prepareKey(keyString)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Manager{aead: aead}, nil
}

// prepareKey は任意の秘密文字列を32バイトのAES鍵へ変換する。
func prepareKey(keyString string) []byte {
	if len(keyString) == fernetKeyLength && keyString[fernetKeyLength-2:] == "==" {
		if decoded, err := base64.URLEncoding.DecodeString(keyString); err == nil && len(decoded) == 32 {
			return decoded
		}
	}

	sum := sha256.Sum256([]byte(keyString))
	return sum[:]
}

// HashValue は等価検索用の決定的なSHA-256ダイジェスト（hex）を返す。
// 同じ入力は常に同じ出力となる（一意制約と検索の前提）。
// 空文字は不在値としてそのまま返す。
func (m *Manager) HashValue(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// EncryptValue は平文を暗号化し、nonce||暗号文をurlsafe base64で返す。
// 空文字は不在値としてそのまま返す。
func (m *Manager) EncryptValue(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	nonce := make([]byte, m.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := m.aead.Seal(nonce, nonce, []byte(value), nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// DecryptValue はEncryptValueが生成した暗号文を復号する。
// 空文字は不在値としてそのまま返す。
// 異なる鍵で生成された暗号文や破損・切り詰められた暗号文に対しては
// CRYPTO_ERRORを返す。この失敗は握り潰さず、操作全体を失敗させること。
func (m *Manager) DecryptValue(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	data, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", model.NewCryptoError(fmt.Errorf("invalid base64: %w", err))
	}

	nonceSize := m.aead.NonceSize()
	if len(data) < nonceSize {
		return "", model.NewCryptoError(fmt.Errorf("ciphertext too short"))
	}

	plaintext, err := m.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", model.NewCryptoError(fmt.Errorf("decryption failed: %w", err))
	}

	return string(plaintext), nil
}

// Seal は1つの平文からハッシュと暗号文のペアを導出する。
// 暗号化フィールドへの書き込みは必ずこのペア単位で行う。
func (m *Manager) Seal(value string) (SealedValue, error) {
	encrypted, err := m.EncryptValue(value)
	if err != nil {
		return SealedValue{}, err
	}
	return SealedValue{
		Hash:       m.HashValue(value),
		Ciphertext: encrypted,
	}, nil
}
