package api

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/smmonirhasan92/man2man-sub003/internal/alerts"
	"github.com/smmonirhasan92/man2man-sub003/internal/auth"
	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/messaging"
	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
)

// Deps bundles the handlers the router mounts.
type Deps struct {
	Secret   string
	Engine   *Handler
	Auth     *auth.Handler
	Messages *messaging.Handler
	Alerts   *alerts.Handler
}

// Register mounts every route on the echo instance.
func Register(e *echo.Echo, d Deps) {
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("", echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", d.Auth.Signup)
	authGroup.POST("/login", d.Auth.Login)

	// Public
	e.GET("/orders", d.Engine.ListOpenOrders)
	e.GET("/users/:id/profile", d.Engine.PublicProfile)

	// Authenticated
	g := e.Group("", middleware.JWT(d.Secret))
	g.GET("/me", d.Auth.Me)
	g.POST("/auth/pin", d.Auth.SetPin)

	g.POST("/orders", d.Engine.CreateOrder)
	g.GET("/orders/:id", d.Engine.GetOrder)
	g.POST("/orders/:id/cancel", d.Engine.CancelOrder)
	g.POST("/orders/:id/trade", d.Engine.InitiateTrade)

	g.GET("/trades", d.Engine.ListMyTrades)
	g.GET("/trades/:id", d.Engine.GetTrade)
	g.POST("/trades/:id/paid", d.Engine.MarkPaid)
	g.POST("/trades/:id/release", d.Engine.ConfirmRelease)
	g.POST("/trades/:id/request-admin", d.Engine.RequestAdminRelease)
	g.POST("/trades/:id/dispute", d.Engine.HoldTrade)
	g.POST("/trades/:id/rate", d.Engine.RateTrade)

	g.GET("/trades/:id/messages", d.Messages.ListMessages)
	g.POST("/trades/:id/messages", d.Messages.SendMessage)
	g.GET("/trades/:id/ws", d.Messages.TradeWS)

	g.GET("/wallet/balance", d.Engine.Balance)
	g.GET("/wallet/ledger", d.Engine.Ledger)

	g.GET("/notifications", d.Alerts.ListNotifications)
	g.POST("/notifications/:id/read", d.Alerts.MarkRead)

	// Admin
	adminGroup := e.Group("/admin", middleware.JWT(d.Secret), middleware.RequireRoles(domain.RoleAdmin))
	adminGroup.GET("/stats", d.Engine.Stats)
	adminGroup.GET("/disputes", d.Engine.ListDisputes)
	adminGroup.POST("/trades/:id/release", d.Engine.AdminRelease)
	adminGroup.POST("/trades/:id/resolve", d.Engine.ResolveDispute)
	adminGroup.POST("/wallet/credit", d.Engine.CreditWallet)
	adminGroup.POST("/wallet/debit", d.Engine.DebitWallet)
}
