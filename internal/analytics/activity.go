package analytics

import (
	"fmt"
	"sort"
	"time"

	"storefront/internal/domain/model"
)

type ActivityType string

const (
	ActivityOrder ActivityType = "order"
	ActivityUser  ActivityType = "user"
	ActivityStock ActivityType = "stock"
)

type Activity struct {
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Time        time.Time    `json:"time"`
}

func OrderActivity(o model.Order) Activity {
	return Activity{
		Type:        ActivityOrder,
		Title:       "New order received",
		Description: fmt.Sprintf("Order #%s for ₹%s", o.Code, model.FormatAmount(o.Pricing.Total)),
		Time:        o.CreatedAt,
	}
}

func UserActivity(u model.User) Activity {
	return Activity{
		Type:        ActivityUser,
		Title:       "New customer registered",
		Description: fmt.Sprintf("%s joined", u.Email),
		Time:        u.CreatedAt,
	}
}

// 在庫アラートは発生時刻を持たないので集計時刻を使う
func StockActivity(p model.Product, now time.Time) Activity {
	return Activity{
		Type:        ActivityStock,
		Title:       "Low stock alert",
		Description: fmt.Sprintf("%s running low (%d units)", p.Name, p.LowestStock()),
		Time:        now,
	}
}

// 新しい順にlimit件
func RecentActivity(items []Activity, limit int) []Activity {
	out := make([]Activity, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.After(out[j].Time)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
