package httpx

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ariefcatur/go-microshop/internal/control"
	"github.com/go-chi/chi/v5"
)

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteStatus writes {"status": msg}.
func WriteStatus(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, map[string]string{"status": msg})
}

// WriteEmpty writes {}.
func WriteEmpty(w http.ResponseWriter, code int) {
	WriteRaw(w, code, []byte("{}"))
}

func WriteRaw(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

// MaxBody caps how much of a request body any service reads.
const MaxBody = 1 << 20

// ReadBody reads at most MaxBody bytes of the request body.
func ReadBody(r *http.Request) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, MaxBody))
	return string(b), err
}

// InternalHandler serves POST /<service>/internal/{command} for a store.
func InternalHandler(p *control.Plane) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := control.ParseCommand(chi.URLParam(r, "command"))
		if !ok {
			WriteStatus(w, http.StatusBadRequest, "Invalid Request")
			return
		}
		msg, err := p.Do(r.Context(), cmd)
		if err != nil {
			WriteStatus(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteStatus(w, http.StatusOK, msg)
	}
}
