package event

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
// イベントのCRUD自体は外部コンポーネントの責務であり、
// ここでは割当プロトコルが必要とする操作のみを定義する
type Repository interface {
	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id int64) (*Event, error)

	// GetByIDForUpdate はイベント行に行ロックを取得した上でイベントを取得する
	// （トランザクション必須、SELECT ... FOR UPDATE）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*Event, error)

	// DecrementAvailable は空席数を減算する（トランザクション必須）
	DecrementAvailable(ctx context.Context, tx transaction.Tx, id int64, quantity int64) error

	// GetAvailable は空席数を再読込する（トランザクション必須、減算後の防御的確認用）
	GetAvailable(ctx context.Context, tx transaction.Tx, id int64) (int64, error)

	// Restock は空席数を加算する（トランザクション必須、キャンセル時の座席返却用）
	Restock(ctx context.Context, tx transaction.Tx, id int64, quantity int64) error
}
