// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conflict, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	ErrCodeDuplicateUsername = "DUPLICATE_USERNAME"
	ErrCodeAuthFailed        = "AUTH_FAILED"
	ErrCodeNotAuthorized     = "NOT_AUTHORIZED"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodePlantNotFound     = "PLANT_NOT_FOUND"
	ErrCodeCommentNotFound   = "COMMENT_NOT_FOUND"
	ErrCodeCryptoFailure     = "CRYPTO_ERROR"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
)

// NewDuplicateEmailError はメールアドレスの重複エラーを生成する。
// 登録試行後であればフィールド名の開示は機微情報ではないため、どの属性が
// 衝突したかをメッセージに含める。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "conflict",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewDuplicateUsernameError はユーザー名の重複エラーを生成する。
func NewDuplicateUsernameError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  "このユーザー名は既に使用されています。",
		Category: "conflict",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewAuthFailedError は認証失敗エラーを生成する。
//
// アカウントの不存在・パスワード不一致・トークンの署名不正や期限切れは、
// 登録済みアカウントの列挙を防ぐため意図的に同一のエラーへ縮退させる。
// 失敗原因を細分化してはならない。
func NewAuthFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度ログインしてください。",
	}
}

// NewNotAuthorizedError は認可失敗エラーを生成する。
// 拒否理由の詳細は漏らさない。
func NewNotAuthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthorized,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
		Action:   "対象リソースの所有者のみが実行できます。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "validation",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewPlantNotFoundError は植物未検出エラーを生成する。
// 所有権フィルタ付きの更新・削除でも同じエラーを返し、
// 「存在しない」と「自分のものではない」を区別させない。
func NewPlantNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePlantNotFound,
		Message:  "植物が見つからないか、現在のユーザーの所有ではありません。",
		Category: "validation",
		Action:   "植物IDを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  "コメントが見つかりません。",
		Category: "validation",
		Action:   "コメントIDを確認してください。",
	}
}

// NewCryptoError は復号・暗号化の失敗を表すエラーを生成する。
// 保存済み暗号文の復号失敗はデータ破損または鍵ローテーション不整合を意味し、
// 通常の認証失敗とは区別してサーバー側で記録する。リトライしてはならない。
func NewCryptoError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeCryptoFailure,
		Message:  fmt.Sprintf("暗号処理に失敗しました: %v", cause),
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
