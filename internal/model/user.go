// Package model はドメインモデルを定義する。
package model

import "time"

// User は植物ケア共有サービスの利用ユーザーを表す。
//
// 検索可能な機微属性（email / username / phone）は、検索用のSHA-256ハッシュと
// 保管用の暗号文のペアとしてDBに保存される。Email / Username / Phoneの
// 平文フィールドはリポジトリがロード時に復号して設定するインメモリ専用の値で、
// 永続化されることはない。ハッシュと暗号文は常に同一の平文から導出されて
// いなければならない（片方だけの更新は不正）。
type User struct {
	ID string

	// 平文（インメモリ専用）。リポジトリのロード時マッピングで設定される。
	Email    string
	Username string
	Phone    string

	// 保存形（ハッシュ + 暗号文のペア）。
	EmailHash         string
	EmailEncrypted    string
	UsernameHash      string
	UsernameEncrypted string
	PhoneHash         string
	PhoneEncrypted    string

	// パスワードはbcryptダイジェストのみを保持する。復号可能な形は存在しない。
	HashedPassword string

	IsActive   bool
	IsBotanist bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserView はAPIレスポンスとして外部に公開するユーザー情報。
// 復号済みの平文のみを含み、ハッシュ・暗号文・パスワードダイジェストは含まない。
type UserView struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Phone      string `json:"phone,omitempty"`
	IsActive   bool   `json:"is_active"`
	IsBotanist bool   `json:"is_botanist"`
}

// View はUserからUserViewを生成する。
func (u *User) View() UserView {
	return UserView{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Phone:      u.Phone,
		IsActive:   u.IsActive,
		IsBotanist: u.IsBotanist,
	}
}
