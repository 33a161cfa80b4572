package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// TestRouter registers the access probe routes, one per gate combination.
func TestRouter(r chi.Router, gate *Gate) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusOK, "Test Auth!")
	})
	r.Get("/all", plainContent("Public Content."))
	r.With(gate.VerifyToken).Get("/user", plainContent("User Content."))
	r.With(gate.VerifyToken, gate.RequireModerator).Get("/mod", plainContent("Moderator Content."))
	r.With(gate.VerifyToken, gate.RequireAdmin).Get("/admin", plainContent("Admin Content."))
	r.With(gate.VerifyToken, gate.RequireModeratorOrAdmin).Get("/staff", plainContent("Staff Content."))
}

func plainContent(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, body)
	}
}
