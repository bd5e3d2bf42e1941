package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound         = errors.New("イベントが見つかりません")
	ErrEventClosed           = errors.New("このイベントは終了しています。予約は受け付けられません")
	ErrTitleRequired         = errors.New("イベント名は必須です")
	ErrInvalidTotalSeats     = errors.New("座席数は1以上である必要があります")
	ErrInvalidAvailableSeats = errors.New("空席数は0以上かつ総座席数以下である必要があります")
)
