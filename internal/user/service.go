// Package user はユーザープロフィール管理のドメインロジックを提供する。
package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/plantcare/internal/model"
	"github.com/hitoshi/plantcare/internal/repository"
	"github.com/hitoshi/plantcare/internal/security"
)

// Service はユーザー管理のサービス層。
// 自分自身のアカウントに対する更新・削除のみを許可する。
type Service struct {
	userRepo repository.UserRepository
	sec      *security.Manager
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, sec *security.Manager) *Service {
	return &Service{
		userRepo: userRepo,
		sec:      sec,
	}
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateInput はプロフィール更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Email      *string
	Username   *string
	Phone      *string
	IsBotanist *bool
}

// Update はユーザーのプロフィールを部分更新する。
//
// 呼び出し元が対象ユーザー本人でない場合はNOT_AUTHORIZEDを返す。
// email / username を変更する場合は重複を事前チェックし、
// ハッシュと暗号文のペアを再導出して単一ステートメントで書き込む。
// ペアが別々にコミットされることはない。
func (s *Service) Update(ctx context.Context, callerID, targetID string, input UpdateInput) (*model.User, error) {
	if callerID != targetID {
		slog.Warn("unauthorized user update attempt",
			slog.String("caller_id", callerID),
			slog.String("target_id", targetID),
		)
		return nil, model.NewNotAuthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if input.Email != nil && *input.Email != user.Email {
		if err := s.checkEmailAvailable(ctx, *input.Email, targetID); err != nil {
			return nil, err
		}
		sealed, err := s.sec.Seal(*input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = *input.Email
		user.EmailHash = sealed.Hash
		user.EmailEncrypted = sealed.Ciphertext
	}

	if input.Username != nil && *input.Username != user.Username {
		if err := s.checkUsernameAvailable(ctx, *input.Username, targetID); err != nil {
			return nil, err
		}
		sealed, err := s.sec.Seal(*input.Username)
		if err != nil {
			return nil, err
		}
		user.Username = *input.Username
		user.UsernameHash = sealed.Hash
		user.UsernameEncrypted = sealed.Ciphertext
	}

	if input.Phone != nil {
		sealed, err := s.sec.Seal(*input.Phone)
		if err != nil {
			return nil, err
		}
		user.Phone = *input.Phone
		user.PhoneHash = sealed.Hash
		user.PhoneEncrypted = sealed.Ciphertext
	}

	if input.IsBotanist != nil {
		user.IsBotanist = *input.IsBotanist
	}

	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user updated", slog.String("user_id", user.ID))
	return user, nil
}

// Delete はユーザー自身のアカウントを削除する。
// 本人以外からの削除要求はNOT_AUTHORIZEDを返す。
func (s *Service) Delete(ctx context.Context, callerID, targetID string) error {
	if callerID != targetID {
		slog.Warn("unauthorized user deletion attempt",
			slog.String("caller_id", callerID),
			slog.String("target_id", targetID),
		)
		return model.NewNotAuthorizedError()
	}

	if err := s.userRepo.DeleteByID(ctx, targetID); err != nil {
		return err
	}

	slog.Info("user deleted", slog.String("user_id", targetID))
	return nil
}

// checkEmailAvailable は別のユーザーがそのemailを使用していないか事前チェックする。
// 最終的な保証はハッシュ列の一意制約が担う。
func (s *Service) checkEmailAvailable(ctx context.Context, email, selfID string) error {
	existing, err := s.userRepo.FindByEmailHash(ctx, s.sec.HashValue(email))
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return model.NewDuplicateEmailError()
	}
	return nil
}

// checkUsernameAvailable は別のユーザーがそのusernameを使用していないか事前チェックする。
func (s *Service) checkUsernameAvailable(ctx context.Context, username, selfID string) error {
	existing, err := s.userRepo.FindByUsernameHash(ctx, s.sec.HashValue(username))
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return model.NewDuplicateUsernameError()
	}
	return nil
}
