package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/plantcare/internal/model"
	"github.com/hitoshi/plantcare/internal/security"
)

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
// 暗号化フィールドはロード時に明示的に復号して平文フィールドへマッピングする。
// ORMのロードフックや隠れたキャッシュフラグには依存しない。
type PostgresUserRepo struct {
	db  *sql.DB
	sec *security.Manager
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB, sec *security.Manager) *PostgresUserRepo {
	return &PostgresUserRepo{db: db, sec: sec}
}

const userColumns = `id, email_hash, email_encrypted, username_hash, username_encrypted,
	phone_hash, phone_encrypted, hashed_password, is_active, is_botanist, created_at, updated_at`

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmailHash はemailハッシュでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmailHash(ctx context.Context, emailHash string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email_hash = $1`, emailHash)
}

// FindByUsernameHash はusernameハッシュでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsernameHash(ctx context.Context, usernameHash string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username_hash = $1`, usernameHash)
}

// FindByPhoneHash はphoneハッシュでユーザーを検索する。
// phoneハッシュは一意ではないため、複数一致した場合は最初の1件を返す。
func (r *PostgresUserRepo) FindByPhoneHash(ctx context.Context, phoneHash string) (*model.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_hash = $1 ORDER BY created_at LIMIT 1`,
		phoneHash)
}

// Create はユーザーを作成する。
// 一意制約違反はDUPLICATE_EMAIL / DUPLICATE_USERNAMEへ変換される。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID,
		user.EmailHash, user.EmailEncrypted,
		user.UsernameHash, user.UsernameEncrypted,
		nullable(user.PhoneHash), nullable(user.PhoneEncrypted),
		user.HashedPassword, user.IsActive, user.IsBotanist,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if dupErr := translateUniqueViolation(err); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーの全フィールドを単一ステートメントで更新する。
// ハッシュと暗号文のペアが別々にコミットされることはない。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			email_hash = $2, email_encrypted = $3,
			username_hash = $4, username_encrypted = $5,
			phone_hash = $6, phone_encrypted = $7,
			hashed_password = $8, is_active = $9, is_botanist = $10, updated_at = $11
		 WHERE id = $1`,
		user.ID,
		user.EmailHash, user.EmailEncrypted,
		user.UsernameHash, user.UsernameEncrypted,
		nullable(user.PhoneHash), nullable(user.PhoneEncrypted),
		user.HashedPassword, user.IsActive, user.IsBotanist,
		user.UpdatedAt,
	)
	if err != nil {
		if dupErr := translateUniqueViolation(err); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}
	return nil
}

// findOne は1件取得クエリを実行し、復号済みユーザーを返す。
func (r *PostgresUserRepo) findOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	user := &model.User{}
	var phoneHash, phoneEncrypted sql.NullString

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.EmailHash, &user.EmailEncrypted,
		&user.UsernameHash, &user.UsernameEncrypted,
		&phoneHash, &phoneEncrypted,
		&user.HashedPassword, &user.IsActive, &user.IsBotanist,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.PhoneHash = phoneHash.String
	user.PhoneEncrypted = phoneEncrypted.String

	if err := r.decrypt(user); err != nil {
		return nil, err
	}
	return user, nil
}

// decrypt は保存形の暗号文を復号して平文フィールドへ設定する。
// 保存済み暗号文の復号失敗はデータ破損または鍵不整合であり、そのまま伝播させる。
func (r *PostgresUserRepo) decrypt(user *model.User) error {
	var err error
	if user.Email, err = r.sec.DecryptValue(user.EmailEncrypted); err != nil {
		return err
	}
	if user.Username, err = r.sec.DecryptValue(user.UsernameEncrypted); err != nil {
		return err
	}
	if user.Phone, err = r.sec.DecryptValue(user.PhoneEncrypted); err != nil {
		return err
	}
	return nil
}

// translateUniqueViolation は一意制約違反をDuplicateIdentity系のAPIErrorへ変換する。
// 対象外のエラーに対してはnilを返す。
// 事前チェックをすり抜けた同時登録（check-then-insertのTOCTOU）でも、
// この変換によって呼び出し側は常に同じ重複エラーを受け取る。
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}

	switch {
	case strings.Contains(pqErr.Constraint, "email_hash"):
		return model.NewDuplicateEmailError()
	case strings.Contains(pqErr.Constraint, "username_hash"):
		return model.NewDuplicateUsernameError()
	default:
		return nil
	}
}

// nullable は空文字をNULLとして保存するためのヘルパー。
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
