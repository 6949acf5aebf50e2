package model

import "github.com/shopspring/decimal"

// 最小通貨単位 → 表示用（12345 → "123.45"）
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
