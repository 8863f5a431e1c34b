// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/plantcare/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
//
// 暗号化フィールドの検索はハッシュ列への等価クエリのみをサポートする。
// 範囲検索・前方一致・大文字小文字を無視した検索は提供しない。
// 実装はロード時に暗号文を復号し、平文フィールドを設定して返す。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmailHash はemailハッシュでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmailHash(ctx context.Context, emailHash string) (*model.User, error)

	// FindByUsernameHash はusernameハッシュでユーザーを検索する。見つからない場合はnilを返す。
	FindByUsernameHash(ctx context.Context, usernameHash string) (*model.User, error)

	// FindByPhoneHash はphoneハッシュでユーザーを検索する。
	// phoneハッシュは一意ではないため、複数一致した場合は最初の1件を返す。
	// 見つからない場合はnilを返す。
	FindByPhoneHash(ctx context.Context, phoneHash string) (*model.User, error)

	// Create はユーザーを作成する。
	// email_hash / username_hash の一意制約違反はそれぞれ
	// DUPLICATE_EMAIL / DUPLICATE_USERNAME のAPIErrorへ変換される。
	// アプリケーション層の事前チェックとは独立に、この制約が重複排除の最終防衛線となる。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーの全フィールドを単一ステートメントで更新する。
	// ハッシュと暗号文のペアは常に一緒にコミットされる。
	// 一意制約違反はCreateと同様に変換される。
	Update(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するコメントはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// PlantRepository は植物データの永続化インターフェース。
type PlantRepository interface {
	// Create は植物を作成する。
	Create(ctx context.Context, plant *model.Plant) error

	// FindByID は指定IDの植物を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Plant, error)

	// FindByIDAndOwner はIDとオーナーIDで植物を取得する。
	// 存在しない場合と所有者が異なる場合はどちらもnilを返す（意図的に区別しない）。
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Plant, error)

	// Update は植物情報を更新する。
	Update(ctx context.Context, plant *model.Plant) error

	// UpdateCaretaker はケア担当者を更新する。空文字で担当を解除する。
	UpdateCaretaker(ctx context.Context, plantID, caretakerID string) error

	// DeleteByIDAndOwner はIDとオーナーIDで植物を削除する。
	// 削除できた場合はtrueを返す。存在しない・所有者が異なる場合はfalse。
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error)

	// ListByOwner はオーナーの植物一覧を返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Plant, error)

	// ListExcludingOwner は指定オーナー以外の植物一覧を返す。
	ListExcludingOwner(ctx context.Context, ownerID string) ([]*model.Plant, error)

	// ListInCareExcludingOwner はケア中（担当者設定済み）かつ指定オーナー以外の植物一覧を返す。
	ListInCareExcludingOwner(ctx context.Context, ownerID string) ([]*model.Plant, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListByPlant は植物のコメント一覧を作成日時の昇順で返す。
	ListByPlant(ctx context.Context, plantID string) ([]*model.Comment, error)

	// ListByUser はユーザーが投稿したコメント一覧を作成日時の昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Comment, error)

	// UpdateText はコメント本文を更新する。
	UpdateText(ctx context.Context, id, text string) error

	// DeleteByID は指定IDのコメントを削除する。
	DeleteByID(ctx context.Context, id string) error
}
