// Package auth はユーザー登録、パスワード認証、アクセストークンの発行・検証を提供する。
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/plantcare/internal/model"
	"github.com/hitoshi/plantcare/internal/repository"
	"github.com/hitoshi/plantcare/internal/security"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenSecret []byte        // トークン署名鍵
	TokenTTL    time.Duration // アクセストークンの有効期間
	BcryptCost  int           // パスワードハッシュのコストファクター
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	sec      *security.Manager
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, sec *security.Manager, config ServiceConfig) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo: userRepo,
		sec:      sec,
		config:   config,
	}
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email      string
	Username   string
	Phone      string
	Password   string
	IsBotanist bool
}

// Register は新規ユーザーを登録する。
//
// email / username の重複は事前チェックで検出し、わかりやすいエラーを返す。
// ただし同時登録のcheck-then-insert競合は事前チェックでは防げないため、
// 重複排除の最終的な保証はリポジトリ（ハッシュ列の一意制約）が担う。
// リポジトリの返す重複エラーもそのまま伝播させる。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if input.Email == "" {
		return nil, model.NewInvalidRequestError("emailは必須です")
	}
	if input.Username == "" {
		return nil, model.NewInvalidRequestError("usernameは必須です")
	}
	if input.Password == "" {
		return nil, model.NewInvalidRequestError("passwordは必須です")
	}

	// 事前チェック（フレンドリーなエラーのため。最終防衛線は一意制約）
	existing, err := s.userRepo.FindByEmailHash(ctx, s.sec.HashValue(input.Email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Warn("registration rejected: email already exists")
		return nil, model.NewDuplicateEmailError()
	}

	existing, err = s.userRepo.FindByUsernameHash(ctx, s.sec.HashValue(input.Username))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Warn("registration rejected: username already exists")
		return nil, model.NewDuplicateUsernameError()
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	email, err := s.sec.Seal(input.Email)
	if err != nil {
		return nil, err
	}
	username, err := s.sec.Seal(input.Username)
	if err != nil {
		return nil, err
	}
	phone, err := s.sec.Seal(input.Phone)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:                uuid.New().String(),
		Email:             input.Email,
		Username:          input.Username,
		Phone:             input.Phone,
		EmailHash:         email.Hash,
		EmailEncrypted:    email.Ciphertext,
		UsernameHash:      username.Hash,
		UsernameEncrypted: username.Ciphertext,
		PhoneHash:         phone.Hash,
		PhoneEncrypted:    phone.Ciphertext,
		HashedPassword:    string(hashedPassword),
		IsActive:          true,
		IsBotanist:        input.IsBotanist,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	userType := "regular"
	if user.IsBotanist {
		userType = "botanist"
	}
	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("user_type", userType),
	)

	return user, nil
}

// Authenticate はemailとパスワードでユーザーを認証する。
//
// アカウントが存在しない場合とパスワードが一致しない場合は、
// 登録済みemailの列挙を防ぐため意図的に同一のAUTH_FAILEDを返す。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmailHash(ctx, s.sec.HashValue(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewAuthFailedError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, model.NewAuthFailedError()
	}

	return user, nil
}

// Login は認証に成功した場合にアクセストークンを発行する。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.Bool("is_botanist", user.IsBotanist),
	)

	return token, nil
}

// IssueToken はユーザーの平文emailをsubとするアクセストークンを発行する。
func (s *Service) IssueToken(user *model.User) (string, error) {
	return GenerateToken(user.Email, s.config.TokenSecret, s.config.TokenTTL)
}

// ResolveToken はトークンを検証し、対応するユーザーを返す。
//
// 署名不正・期限切れ・subのユーザー不在・非アクティブのいずれであっても
// 同一のAUTH_FAILEDへ縮退させる。subは平文emailなので、ハッシュを
// 再導出してから検索する。
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*model.User, error) {
	email, err := ParseSubject(tokenString, s.config.TokenSecret)
	if err != nil {
		return nil, model.NewAuthFailedError()
	}

	user, err := s.userRepo.FindByEmailHash(ctx, s.sec.HashValue(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, model.NewAuthFailedError()
	}

	return user, nil
}
