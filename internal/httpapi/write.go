package httpapi

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/John-Robertt/subrules/internal/model"
)

func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// WriteError writes {"error": AppError} with the given status.
func WriteError(w http.ResponseWriter, r *http.Request, status int, e model.AppError) {
	render.Status(r, status)
	render.JSON(w, r, model.ErrorResponse{Error: e})
}
