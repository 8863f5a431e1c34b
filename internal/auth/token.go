package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken は署名付きアクセストークンを生成する。
// クレームは平文emailのsubと絶対期限expのみ。HS256で署名する。
// トークンはステートレスであり、サーバー側の失効リストは存在しない。
// 期限満了が唯一の無効化手段となる。
func GenerateToken(email string, secretKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseSubject はトークンの署名と期限を検証し、subクレーム（平文email）を返す。
// 署名不正・期限切れ（now >= exp）・クレーム欠落はいずれもエラーとなる。
// 呼び出し側はエラーの種別を区別せず、一様にAUTH_FAILEDへ変換すること。
func ParseSubject(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("missing subject claim")
	}

	return claims.Subject, nil
}
