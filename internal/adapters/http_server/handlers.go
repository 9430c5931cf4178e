// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"billingfile/internal/app"
	"billingfile/internal/domain"
)

type Handlers struct {
	B *app.BillingService
	Q *app.QueryService
	I *app.ImportService

	// PendingDir is where scheduled import files are dropped.
	PendingDir string

	AuthUser string
	AuthPass string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const maxImportBytes = 10 << 20 // 10MB cap on uploaded CSVs

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/billing/reservations", h.getBillingFile)
		r.Get("/hotels", h.listHotels)
		r.Get("/hotels/{id}", h.getHotel)
		r.Get("/reservations", h.listReservations)
		r.Get("/reservations/{confirm}", h.getReservation)

		r.Group(func(r chi.Router) {
			r.Use(BasicAuth(h.AuthUser, h.AuthPass))
			r.Post("/imports/hotel-currencies", h.importHotelCurrencies)
			r.Post("/imports/hotel-currencies/pending/{name}", h.importFromPending)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- billing ----

func (h *Handlers) getBillingFile(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		writeProblem(w, http.StatusBadRequest, "Missing parameter", "both from and to are required (YYYY-MM-DD)")
		return
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid from", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid to", "to must be YYYY-MM-DD")
		return
	}

	recs, err := h.B.BillingFile(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRange) {
			writeProblem(w, http.StatusBadRequest, "Invalid range", "from must not be after to")
			return
		}
		log.Error().Err(err).Msg("billing file query failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "billing file query failed")
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="billing_%s_%s.csv"`, fromStr, toStr))
		if err := WriteBillingCSV(w, recs); err != nil {
			log.Error().Err(err).Msg("failed to write billing CSV body")
		}
		return
	}

	etag, body := calcETagAndBody(recs)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write billing file body")
	}
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q := domain.HotelsQuery{Limit: 50}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 500 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
			return
		}
		q.Limit = l
	}
	if c := r.URL.Query().Get("country"); c != "" {
		q.Country = &c
	}
	if a := r.URL.Query().Get("active"); a != "" {
		b, err := strconv.ParseBool(a)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid active", "active must be a boolean")
			return
		}
		q.Active = &b
	}
	hotels, err := h.Q.ListHotels(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list hotels failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "hotel query failed")
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hv, err := h.Q.GetHotel(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("get hotel failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "hotel query failed")
		return
	}
	writeJSON(w, http.StatusOK, hv)
}

// ---- reservations ----

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	// confirm_number is a point lookup, not a filter
	if cn := r.URL.Query().Get("confirm_number"); cn != "" {
		rv, err := h.Q.GetReservationByConfirm(r.Context(), cn)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeJSON(w, http.StatusOK, []domain.Reservation{})
				return
			}
			log.Error().Err(err).Msg("reservation lookup failed")
			writeProblem(w, http.StatusInternalServerError, "Internal error", "reservation query failed")
			return
		}
		writeJSON(w, http.StatusOK, []domain.Reservation{rv})
		return
	}

	q := domain.ReservationsQuery{Limit: 50}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 500 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
			return
		}
		q.Limit = l
	}
	if hs := r.URL.Query().Get("hotel_id"); hs != "" {
		id, err := strconv.ParseInt(hs, 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid hotel_id", "hotel_id must be a number")
			return
		}
		q.HotelID = &id
	}
	if st := r.URL.Query().Get("status"); st != "" {
		q.Status = &st
	}
	rs, err := h.Q.ListReservations(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list reservations failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "reservation query failed")
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	confirm := chi.URLParam(r, "confirm")
	rv, err := h.Q.GetReservationByConfirm(r.Context(), confirm)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "reservation not found")
			return
		}
		log.Error().Err(err).Str("confirm", confirm).Msg("get reservation failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "reservation query failed")
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

// ---- imports ----

func (h *Handlers) importHotelCurrencies(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "expected multipart form with a file field")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid upload", "file field is required")
		return
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(hdr.Filename), ".csv") {
		writeProblem(w, http.StatusBadRequest, "Invalid file", "only .csv files are accepted")
		return
	}
	if hdr.Size > maxImportBytes {
		writeProblem(w, http.StatusBadRequest, "File too large", "file exceeds the 10MB limit")
		return
	}

	res := h.I.ImportFromStream(r.Context(), f, hdr.Filename)
	status := http.StatusOK
	if !res.IsSuccess {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

func (h *Handlers) importFromPending(w http.ResponseWriter, r *http.Request) {
	// Base() strips any path components smuggled into the name.
	name := filepath.Base(chi.URLParam(r, "name"))
	if name == "." || name == string(filepath.Separator) {
		writeProblem(w, http.StatusBadRequest, "Invalid name", "a file name is required")
		return
	}
	path := filepath.Join(h.PendingDir, name)
	if _, err := os.Stat(path); err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("file not found: %s", name))
		return
	}

	res, err := h.I.ImportFile(r.Context(), path)
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("pending import failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "import failed to start")
		return
	}
	status := http.StatusOK
	if !res.IsSuccess {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}
