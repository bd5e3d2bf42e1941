package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
)

// UserRepository はユーザー情報の読み取り専用実装
// ユーザー管理自体は外部コンポーネントの責務であり、
// 予約の連絡先補完に必要な読み取りのみを提供する
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository はUserRepositoryを作成する
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetContact はユーザーの氏名とメールアドレスを取得する
// ユーザーが存在しない場合は空文字を返す（補完元がないだけでエラーではない）
func (r *UserRepository) GetContact(ctx context.Context, userID int64) (string, string, error) {
	var row struct {
		Name  *string `db:"name"`
		Email *string `db:"email"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT name, email FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("ユーザー情報の取得に失敗しました: %w", err)
	}

	var name, email string
	if row.Name != nil {
		name = *row.Name
	}
	if row.Email != nil {
		email = *row.Email
	}
	return name, email, nil
}

var _ booking.ContactDefaulter = (*UserRepository)(nil)
