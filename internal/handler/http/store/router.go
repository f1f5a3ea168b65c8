package store

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/app/catalog"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/app/orders"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/handler/http/middleware"
)

func RegisterRoutes(r chi.Router, orderService orders.OrderService, catalogService catalog.CatalogService, l *zap.Logger) {
	handler := NewStoreHandler(orderService, catalogService, l.With(zap.String("component", "StoreHTTPHandler")))

	r.Get("/catalogo", handler.GetCatalog)
	r.Get("/verificar-nickname/{nickname}", handler.VerifyNickname)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(l))

		r.Get("/catalogo/usuario", handler.GetCatalogForUser)
		r.Post("/orden", handler.CreateOrder)
		r.Post("/orden/paypal", handler.InitiatePayment)
		r.Post("/orden/paypal/capture", handler.CapturePayment)
		r.Post("/orden/saldo", handler.PayWithBalance)
		r.Post("/orden/{orderID}/cancelar", handler.CancelOrder)
		r.Get("/orden/{orderID}", handler.GetOrder)
		r.Get("/historial", handler.GetHistory)
	})
}
