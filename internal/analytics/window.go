package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// 集計で使う月の区切り。どれも [start, end) の半開区間
type Window struct {
	Now            time.Time
	ThisMonthStart time.Time
	LastMonthStart time.Time
	NextMonthStart time.Time
	// 今月を含む直近6か月の先頭
	TrendStart time.Time
}

const TrendMonths = 6

func NewWindow(now time.Time) Window {
	y, m, _ := now.Date()
	loc := now.Location()
	thisMonth := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	return Window{
		Now:            now,
		ThisMonthStart: thisMonth,
		LastMonthStart: thisMonth.AddDate(0, -1, 0),
		NextMonthStart: thisMonth.AddDate(0, 1, 0),
		TrendStart:     thisMonth.AddDate(0, -(TrendMonths - 1), 0),
	}
}

func (w Window) InThisMonth(t time.Time) bool {
	return !t.Before(w.ThisMonthStart) && t.Before(w.NextMonthStart)
}

func (w Window) InLastMonth(t time.Time) bool {
	return !t.Before(w.LastMonthStart) && t.Before(w.ThisMonthStart)
}

// TrendStartからの月の位置。範囲外は-1
func (w Window) TrendIndex(t time.Time) int {
	t = t.In(w.ThisMonthStart.Location())
	if t.Before(w.TrendStart) || !t.Before(w.NextMonthStart) {
		return -1
	}
	ty, tm, _ := t.Date()
	sy, sm, _ := w.TrendStart.Date()
	return (ty-sy)*12 + int(tm-sm)
}

// TrendIndexの月（"Jan" など）
func (w Window) TrendMonthName(i int) string {
	return w.TrendStart.AddDate(0, i, 0).Month().String()[:3]
}

// 前期比（%）。小数1桁に丸める
// previousが0のときは current>0 なら100、そうでなければ0
func Growth(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return decimal.NewFromInt(current - previous).
		Div(decimal.NewFromInt(previous)).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		InexactFloat64()
}
