package booking

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// ListFilter は予約一覧の絞り込み条件を表す
type ListFilter struct {
	EventID *int64
	UserID  *int64
}

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約と座席割当行を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id int64) (*Booking, error)

	// GetByIDForUpdate はIDから予約を行ロック付きで取得する（トランザクション必須）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*Booking, error)

	// List は条件に一致する予約一覧を取得する（作成日時の降順）
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID int64) ([]*Booking, error)

	// ListSeatsByEvent はイベントのキャンセル済み以外の全予約の座席番号を取得する
	// （トランザクション内で呼ばれた場合は同一トランザクションの読み取り）
	ListSeatsByEvent(ctx context.Context, tx transaction.Tx, eventID int64) ([]int64, error)

	// ListSeatsByEventAndUser は指定ユーザーのキャンセル済み以外の予約の座席番号を取得する
	ListSeatsByEventAndUser(ctx context.Context, tx transaction.Tx, eventID, userID int64) ([]int64, error)

	// UpdateStatus は予約の状態を更新する（トランザクション必須）
	UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, status Status) error

	// DeleteSeats は予約の座席割当行を削除する（トランザクション必須、キャンセル時）
	DeleteSeats(ctx context.Context, tx transaction.Tx, id int64) error

	// InsertSeats は予約の座席割当行を登録する（トランザクション必須、キャンセル復帰時）
	InsertSeats(ctx context.Context, tx transaction.Tx, eventID int64, seats []int64, bookingID int64) error
}

// ContactDefaulter は連絡先未指定時の補完に使うユーザー情報の読み取りインターフェース
// ユーザー管理自体は外部コンポーネントの責務
type ContactDefaulter interface {
	// GetContact はユーザーの氏名とメールアドレスを取得する
	GetContact(ctx context.Context, userID int64) (name, email string, err error)
}
