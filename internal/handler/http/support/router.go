package support

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sofialejandracrz/esports-platform-sub000/internal/app/support"
	"github.com/sofialejandracrz/esports-platform-sub000/internal/handler/http/middleware"
)

func RegisterRoutes(r chi.Router, s support.SupportService, l *zap.Logger) {
	handler := NewSupportHandler(s, l.With(zap.String("component", "SupportHTTPHandler")))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(l))

		r.Get("/soporte/mis-solicitudes", handler.GetMyTickets)

		r.Route("/admin/soporte", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(l))

			r.Get("/", handler.GetOpenTickets)
			r.Get("/{ticketID}", handler.GetTicket)
			r.Post("/resolver", handler.ResolveTicket)
		})
	})
}
