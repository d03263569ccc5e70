package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the REST surface onto the application services.
//
// Authentication lives upstream: the gateway validates the session and
// forwards the caller's id in X-User-ID, which handlers use for the id-based
// actor checks inside the services.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cycles", func(r chi.Router) {
			r.Post("/", h.CreateCycle)
			r.Patch("/{id}", h.RenameCycle)
			r.Delete("/{id}", h.DeleteCycle)
			r.Post("/{id}/activate", h.ActivateCycle)
			r.Post("/{id}/deactivate", h.DeactivateCycle)
			r.Post("/{id}/run", h.RunCycleNow)
			r.Post("/{id}/reminders", h.SendCycleReminders)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/{id}/form", h.ReviewForm)
			r.Post("/{id}/self", h.SubmitEmployeeResponses)
			r.Post("/{id}/manager", h.SubmitManagerResponses)
			r.Post("/{id}/draft", h.SaveDraft)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Post("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})
	})

	return r
}

// ListenAndServe blocks serving the API on the given port.
func ListenAndServe(port string, h *Handler) error {
	return http.ListenAndServe(":"+port, NewRouter(h))
}
