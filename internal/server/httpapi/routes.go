package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/planadmin/internal/server/users"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) registerRoutes(r chi.Router) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/admin/auth", func(r chi.Router) {
		r.Post("/login/", s.handleLogin)
		r.Post("/refresh/", s.handleRefresh)
		r.With(s.authenticate).Post("/logout/", s.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.With(requireRole(users.RoleSuperAdmin)).Get("/admin/settings/", s.handleGetSettings)
		r.With(requireRole(users.RoleSuperAdmin)).Put("/admin/settings/", s.handlePutSettings)
		r.With(requireRole(users.RoleAdmin)).Patch("/admin/reimbursements/{id}/", s.handlePatchReimbursement)
		r.With(requireRole(users.RoleViewer)).Get("/admin/{kind}/", s.handleList)
		r.With(requireRole(users.RoleAdmin)).Post("/uploads/", s.handleUpload)
	})
}
