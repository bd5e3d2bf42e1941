// Package seatset は座席番号入力を正規化する
package seatset

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Normalize は座席番号の列を正規化する
// 正の整数のみ残し、重複を除去する（最初の出現順を保持）
func Normalize(seats []int64) []int64 {
	result := make([]int64, 0, len(seats))
	seen := make(map[int64]struct{}, len(seats))
	for _, s := range seats {
		if s <= 0 {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}

// ParseString は文字列から座席番号の列を取り出す
// JSONエンコードされた配列、またはカンマ区切りの文字列を受け付ける
// 解析できない入力は空の列を返す（エラーにはしない）
func ParseString(s string) []int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int64{}
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return fromRawList(arr)
	}

	parts := strings.Split(s, ",")
	seats := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		seats = append(seats, n)
	}
	return Normalize(seats)
}

// Parse はJSON値（数値配列・文字列配列・文字列）から座席番号の列を取り出す
func Parse(raw json.RawMessage) []int64 {
	if len(raw) == 0 {
		return []int64{}
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return fromRawList(arr)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseString(s)
	}

	return []int64{}
}

// fromRawList は配列の各要素を数値または数値文字列として解釈する
func fromRawList(arr []json.RawMessage) []int64 {
	seats := make([]int64, 0, len(arr))
	for _, elem := range arr {
		var n int64
		if err := json.Unmarshal(elem, &n); err == nil {
			seats = append(seats, n)
			continue
		}
		var s string
		if err := json.Unmarshal(elem, &s); err == nil {
			if v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				seats = append(seats, v)
			}
		}
	}
	return Normalize(seats)
}
