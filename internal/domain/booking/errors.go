package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound   = errors.New("予約が見つかりません")
	ErrEventIDRequired   = errors.New("イベントIDは必須です")
	ErrSeatsRequired     = errors.New("有効な座席が1つ以上必要です")
	ErrInvalidAmount     = errors.New("合計金額は0より大きい必要があります")
	ErrInvalidQuantity   = errors.New("数量は1以上である必要があります")
	ErrStatusRequired    = errors.New("ステータスは必須です")
	ErrInvalidStatus     = errors.New("無効なステータスです")
	ErrForbidden         = errors.New("権限がありません")
	ErrCapacityUnderflow = errors.New("座席数の整合性確認に失敗しました。もう一度お試しください")
)

// InsufficientCapacityError は空席不足を表す
// 残席数はクライアントに提示する契約の一部
type InsufficientCapacityError struct {
	Available int64
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("空席が不足しています（残り%d席）", e.Available)
}

// InvalidSeatError は範囲外の座席番号を表す
type InvalidSeatError struct {
	Seats      []int64
	TotalSeats int64
}

func (e *InvalidSeatError) Error() string {
	return fmt.Sprintf("無効な座席番号です: %s。座席番号は1から%dの範囲である必要があります", joinSeats(e.Seats), e.TotalSeats)
}

// SeatConflictError は他の予約との座席衝突を表す
type SeatConflictError struct {
	Seats []int64
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("座席 %s は既に予約されています。別の座席を選択してください", joinSeats(e.Seats))
}

// DuplicateHoldError は同一ユーザーによる座席の二重予約を表す
// 原因が異なるため SeatConflictError とは区別する
type DuplicateHoldError struct {
	Seats []int64
}

func (e *DuplicateHoldError) Error() string {
	return fmt.Sprintf("座席 %s はこのイベントで既にあなたが予約済みです", joinSeats(e.Seats))
}

func joinSeats(seats []int64) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = strconv.FormatInt(s, 10)
	}
	return strings.Join(parts, ", ")
}
