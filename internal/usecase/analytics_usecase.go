package usecase

import (
	"context"
	"time"

	"storefront/internal/analytics"
	"storefront/internal/domain/model"
	"storefront/internal/observability"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const (
	analyticsRankLimit     = 5
	analyticsRecentPerKind = 3
	analyticsRecentLimit   = 5
	analyticsScanBatch     = 500
)

type AnalyticsSnapshot struct {
	Summary                 analytics.Summary            `json:"summary"`
	CategoryStats           []analytics.CategoryStat     `json:"categoryStats"`
	TopProducts             []analytics.ProductStat      `json:"topProducts"`
	MonthlyData             []analytics.MonthStat        `json:"monthlyData"`
	RecentActivity          []analytics.Activity         `json:"recentActivity"`
	OrderStatusDistribution analytics.StatusDistribution `json:"orderStatusDistribution"`
}

type Clock interface {
	Now() time.Time
}

// 読むだけ。書き込みはしない
type AnalyticsUsecase struct {
	orders            repo.OrderRepository
	users             repo.UserRepository
	products          repo.ProductRepository
	clock             Clock
	lowStockThreshold int64
}

func NewAnalyticsUsecase(
	orders repo.OrderRepository,
	users repo.UserRepository,
	products repo.ProductRepository,
	clock Clock,
	lowStockThreshold int64,
) *AnalyticsUsecase {
	return &AnalyticsUsecase{
		orders:            orders,
		users:             users,
		products:          products,
		clock:             clock,
		lowStockThreshold: lowStockThreshold,
	}
}

func (u *AnalyticsUsecase) Snapshot(ctx context.Context) (AnalyticsSnapshot, error) {
	w := analytics.NewWindow(u.clock.Now())
	agg := analytics.NewAggregator(w)

	if err := u.orders.ScanWithItems(ctx, nil, analyticsScanBatch, func(batch []model.Order) error {
		for _, o := range batch {
			agg.Add(o)
		}
		return nil
	}); err != nil {
		return AnalyticsSnapshot{}, u.fail(ctx, "scan orders", err)
	}

	totalCustomers, err := u.users.CountCustomers(ctx, nil, nil)
	if err != nil {
		return AnalyticsSnapshot{}, u.fail(ctx, "count customers", err)
	}
	thisMonthCustomers, err := u.users.CountCustomers(ctx, &w.ThisMonthStart, &w.NextMonthStart)
	if err != nil {
		return AnalyticsSnapshot{}, u.fail(ctx, "count customers", err)
	}
	lastMonthCustomers, err := u.users.CountCustomers(ctx, &w.LastMonthStart, &w.ThisMonthStart)
	if err != nil {
		return AnalyticsSnapshot{}, u.fail(ctx, "count customers", err)
	}

	// カテゴリ・商品名は今のカタログから引く
	products, err := u.products.FindByIDs(ctx, agg.ProductIDs())
	if err != nil {
		return AnalyticsSnapshot{}, u.fail(ctx, "load products", err)
	}
	catalog := make(map[string]model.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	recent, err := u.recentActivity(ctx, w.Now)
	if err != nil {
		return AnalyticsSnapshot{}, u.fail(ctx, "recent activity", err)
	}

	return AnalyticsSnapshot{
		Summary:                 agg.Summary(totalCustomers, thisMonthCustomers, lastMonthCustomers),
		CategoryStats:           agg.CategoryStats(catalog, analyticsRankLimit),
		TopProducts:             agg.TopProducts(catalog, analyticsRankLimit),
		MonthlyData:             agg.Monthly(),
		RecentActivity:          recent,
		OrderStatusDistribution: agg.StatusDistribution(),
	}, nil
}

func (u *AnalyticsUsecase) recentActivity(ctx context.Context, now time.Time) ([]analytics.Activity, error) {
	orders, err := u.orders.ListRecent(ctx, analyticsRecentPerKind)
	if err != nil {
		return nil, err
	}
	users, err := u.users.ListRecentCustomers(ctx, analyticsRecentPerKind)
	if err != nil {
		return nil, err
	}
	lowStock, err := u.products.ListLowStock(ctx, u.lowStockThreshold, analyticsRecentPerKind)
	if err != nil {
		return nil, err
	}

	items := make([]analytics.Activity, 0, len(orders)+len(users)+len(lowStock))
	for _, o := range orders {
		items = append(items, analytics.OrderActivity(o))
	}
	for _, usr := range users {
		items = append(items, analytics.UserActivity(usr))
	}
	for _, p := range lowStock {
		items = append(items, analytics.StockActivity(p, now))
	}
	return analytics.RecentActivity(items, analyticsRecentLimit), nil
}

func (u *AnalyticsUsecase) fail(ctx context.Context, step string, err error) error {
	observability.FromContext(ctx).Error("analytics failed", zap.String("step", step), zap.Error(err))
	return newKindError(KindInternal, "Failed to fetch analytics data: "+err.Error())
}
