package usecase

import "github.com/oklog/ulid/v2"

const orderCodePrefix = "ORD-"

// 注文番号を作る約束
type OrderCodeGenerator interface {
	NewCode() string
}

// ORD-<ULID>。時刻順に並ぶ
type ULIDOrderCodes struct{}

func (ULIDOrderCodes) NewCode() string {
	return orderCodePrefix + ulid.Make().String()
}
