package analytics

import (
	"sort"

	"storefront/internal/domain/model"
)

const unknownCategory = "Unknown"

type Summary struct {
	TotalRevenue     int64   `json:"totalRevenue"`
	ThisMonthRevenue int64   `json:"thisMonthRevenue"`
	RevenueGrowth    float64 `json:"revenueGrowth"`
	TotalOrders      int64   `json:"totalOrders"`
	OrdersGrowth     float64 `json:"ordersGrowth"`
	TotalCustomers   int64   `json:"totalCustomers"`
	CustomersGrowth  float64 `json:"customersGrowth"`
	AvgOrderValue    int64   `json:"avgOrderValue"`
	AvgOrderGrowth   float64 `json:"avgOrderGrowth"`
}

type CategoryStat struct {
	Name    string  `json:"name"`
	Orders  int64   `json:"orders"`
	Revenue int64   `json:"revenue"`
	Growth  float64 `json:"growth"`
}

type ProductStat struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	OrderCount int64  `json:"orderCount"`
	Revenue    int64  `json:"revenue"`
}

type MonthStat struct {
	Month   string `json:"month"`
	Revenue int64  `json:"revenue"`
	Orders  int64  `json:"orders"`
}

// 全ステータスのキーを必ず出す
type StatusDistribution struct {
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Shipped   int64 `json:"shipped"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
}

type productAgg struct {
	id           string
	snapshotName string
	quantity     int64
	lines        int64
	revenue      int64
	thisMonth    int64
	lastMonth    int64
}

// 注文を1件ずつ流し込んで集計する。売上系は決済完了の注文だけ
type Aggregator struct {
	w Window

	totalRevenue     int64
	thisMonthRevenue int64
	lastMonthRevenue int64
	lastMonthPaid    int64

	totalOrders     int64
	thisMonthOrders int64
	lastMonthOrders int64

	status  map[model.OrderStatus]int64
	monthly [TrendMonths]MonthStat

	products     []*productAgg
	productIndex map[string]*productAgg
}

func NewAggregator(w Window) *Aggregator {
	a := &Aggregator{
		w:            w,
		status:       make(map[model.OrderStatus]int64, len(model.OrderStatuses)),
		productIndex: make(map[string]*productAgg),
	}
	for i := range a.monthly {
		a.monthly[i].Month = w.TrendMonthName(i)
	}
	return a
}

func (a *Aggregator) Add(o model.Order) {
	thisMonth := a.w.InThisMonth(o.CreatedAt)
	lastMonth := a.w.InLastMonth(o.CreatedAt)

	a.totalOrders++
	if thisMonth {
		a.thisMonthOrders++
	}
	if lastMonth {
		a.lastMonthOrders++
	}
	a.status[o.OrderStatus]++

	if o.PaymentStatus != model.PaymentStatusCompleted {
		return
	}

	total := o.Pricing.Total
	a.totalRevenue += total
	if thisMonth {
		a.thisMonthRevenue += total
	}
	if lastMonth {
		a.lastMonthRevenue += total
		a.lastMonthPaid++
	}
	if i := a.w.TrendIndex(o.CreatedAt); i >= 0 {
		a.monthly[i].Revenue += total
		a.monthly[i].Orders++
	}

	for _, it := range o.Items {
		p, ok := a.productIndex[it.ProductID]
		if !ok {
			p = &productAgg{id: it.ProductID, snapshotName: it.ProductName}
			a.productIndex[it.ProductID] = p
			a.products = append(a.products, p)
		}
		line := it.LineTotal()
		p.quantity += it.Quantity
		p.lines++
		p.revenue += line
		if thisMonth {
			p.thisMonth += line
		}
		if lastMonth {
			p.lastMonth += line
		}
	}
}

// 顧客数はユーザー側で数えて渡す
func (a *Aggregator) Summary(totalCustomers, thisMonthCustomers, lastMonthCustomers int64) Summary {
	var avg int64
	if a.totalOrders > 0 {
		avg = roundDiv(a.totalRevenue, a.totalOrders)
	}
	var lastAvg int64
	if a.lastMonthPaid > 0 {
		lastAvg = roundDiv(a.lastMonthRevenue, a.lastMonthPaid)
	}
	// 先月の平均が無いときは0（100にはしない）
	var avgGrowth float64
	if lastAvg > 0 {
		avgGrowth = Growth(avg, lastAvg)
	}

	return Summary{
		TotalRevenue:     a.totalRevenue,
		ThisMonthRevenue: a.thisMonthRevenue,
		RevenueGrowth:    Growth(a.thisMonthRevenue, a.lastMonthRevenue),
		TotalOrders:      a.totalOrders,
		OrdersGrowth:     Growth(a.thisMonthOrders, a.lastMonthOrders),
		TotalCustomers:   totalCustomers,
		CustomersGrowth:  Growth(thisMonthCustomers, lastMonthCustomers),
		AvgOrderValue:    avg,
		AvgOrderGrowth:   avgGrowth,
	}
}

// 集計した商品ID（カタログ引き当て用）
func (a *Aggregator) ProductIDs() []string {
	ids := make([]string, 0, len(a.products))
	for _, p := range a.products {
		ids = append(ids, p.id)
	}
	return ids
}

// カテゴリ別の売上上位。カタログに無い商品は "Unknown"
func (a *Aggregator) CategoryStats(catalog map[string]model.Product, limit int) []CategoryStat {
	type catAgg struct {
		stat      CategoryStat
		thisMonth int64
		lastMonth int64
	}
	index := map[string]*catAgg{}
	var cats []*catAgg
	for _, p := range a.products {
		name := unknownCategory
		if prod, ok := catalog[p.id]; ok && prod.Category != "" {
			name = prod.Category
		}
		c, ok := index[name]
		if !ok {
			c = &catAgg{stat: CategoryStat{Name: name}}
			index[name] = c
			cats = append(cats, c)
		}
		c.stat.Orders += p.lines
		c.stat.Revenue += p.revenue
		c.thisMonth += p.thisMonth
		c.lastMonth += p.lastMonth
	}

	// 同じ売上なら最初に出てきた順
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].stat.Revenue > cats[j].stat.Revenue
	})

	out := make([]CategoryStat, 0, min(limit, len(cats)))
	for _, c := range cats {
		if len(out) == limit {
			break
		}
		c.stat.Growth = Growth(c.thisMonth, c.lastMonth)
		out = append(out, c.stat)
	}
	return out
}

// 商品別の売上上位。名前は今のカタログ優先、無ければ注文時の名前
func (a *Aggregator) TopProducts(catalog map[string]model.Product, limit int) []ProductStat {
	ranked := make([]*productAgg, len(a.products))
	copy(ranked, a.products)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].revenue > ranked[j].revenue
	})

	out := make([]ProductStat, 0, min(limit, len(ranked)))
	for _, p := range ranked {
		if len(out) == limit {
			break
		}
		stat := ProductStat{
			ID:         p.id,
			Name:       p.snapshotName,
			SKU:        "N/A",
			OrderCount: p.quantity,
			Revenue:    p.revenue,
		}
		if prod, ok := catalog[p.id]; ok {
			if prod.Name != "" {
				stat.Name = prod.Name
			}
			if prod.SKU != "" {
				stat.SKU = prod.SKU
			}
		}
		out = append(out, stat)
	}
	return out
}

// 古い月から6か月分。注文が無い月は0
func (a *Aggregator) Monthly() []MonthStat {
	out := make([]MonthStat, len(a.monthly))
	copy(out, a.monthly[:])
	return out
}

func (a *Aggregator) StatusDistribution() StatusDistribution {
	return StatusDistribution{
		Pending:   a.status[model.OrderStatusPending],
		Confirmed: a.status[model.OrderStatusConfirmed],
		Shipped:   a.status[model.OrderStatusShipped],
		Delivered: a.status[model.OrderStatusDelivered],
		Cancelled: a.status[model.OrderStatusCancelled],
	}
}

// 四捨五入の割り算（正の値だけ）
func roundDiv(a, b int64) int64 {
	return (a*2 + b) / (b * 2)
}
