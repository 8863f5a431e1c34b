// Package photo は植物写真のローカルディスク保存を提供する。
package photo

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hitoshi/plantcare/internal/model"
)

// Store は写真ファイルをアップロードディレクトリ配下に保存する。
// ファイル名は {オーナーID}_{元のファイル名} となり、同名で再アップロード
// した場合は上書きされる。
type Store struct {
	dir     string
	maxSize int64
}

// NewStore はStoreを生成し、保存先ディレクトリを作成する。
func NewStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Save は写真を保存し、配信用のURLパスを返す。
//
// ファイル名はfilepath.Baseで正規化し、パス区切りを含む名前による
// ディレクトリトラバーサルを防ぐ。サイズ上限を超えた場合は
// INVALID_REQUESTを返し、部分的に書き込まれたファイルは残さない。
func (s *Store) Save(ownerID, filename string, r io.Reader) (string, error) {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) || strings.HasPrefix(base, "..") {
		return "", model.NewInvalidRequestError("ファイル名が不正です")
	}

	name := fmt.Sprintf("%s_%s", ownerID, base)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}

	// 上限+1バイトまで読み、超過を検出する
	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(path)
		return "", model.NewInvalidRequestError(
			fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています", s.maxSize))
	}

	slog.Info("photo saved",
		slog.String("file", name),
		slog.Int64("size", written),
	)

	return "/photos/" + name, nil
}

// Remove は保存済みの写真を削除する。URLパス（/photos/〜）を受け取る。
// ファイルが存在しない場合はエラーとしない。
func (s *Store) Remove(photoURL string) error {
	name := strings.TrimPrefix(photoURL, "/photos/")
	if name == "" || name == photoURL {
		return nil
	}
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove photo file: %w", err)
	}
	return nil
}

// Dir は保存先ディレクトリを返す。静的配信のルート設定に使用する。
func (s *Store) Dir() string {
	return s.dir
}
