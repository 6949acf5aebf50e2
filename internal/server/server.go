package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// ルーティングに必要なハンドラー一式
type Handlers struct {
	Health    *handler.HealthHandler
	Cart      *handler.CartHandler
	Orders    *handler.OrderHandler
	Payments  *handler.PaymentHandler
	AdminAuth *handler.AdminAuthHandler
	Admin     *handler.AdminOrderHandler
	Analytics *handler.AnalyticsHandler
}

// echoの組み立て。テストからも使う
func New(h Handlers, jwtSecret string, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())

	RegisterRoutes(e, h, jwtSecret)
	return e
}

// ctxがキャンセルされたら止める
func Start(ctx context.Context, e *echo.Echo, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("server shutting down")
	return e.Shutdown(shutdownCtx)
}
