package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nhle/cub-fuel-log/internal/csvio"
	"github.com/nhle/cub-fuel-log/internal/logbook"
	"github.com/nhle/cub-fuel-log/internal/model"
)

// maxImportSize bounds uploaded CSV files.
const maxImportSize = 10 << 20

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrRecordNotFound), errors.Is(err, model.ErrNoRecords):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNoValidRows), errors.Is(err, model.ErrNoNewRows):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func recordID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func decodeInput(r *http.Request) (logbook.RecordInput, error) {
	var in logbook.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, fmt.Errorf("decoding record: %w", err)
	}
	return in, nil
}

// handleListRecords returns the derived log, optionally limited to
// ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		writeJSON(w, http.StatusOK, s.svc.View())
		return
	}
	records, err := s.svc.Between(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []model.EnrichedRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, ok := s.svc.Record(id)
	if !ok {
		writeServiceError(w, model.ErrRecordNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, ok := s.svc.Latest()
	if !ok {
		writeServiceError(w, model.ErrNoRecords)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.svc.AddRecord(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.svc.UpdateRecord(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.svc.DeleteRecord(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.DeleteAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type previewResponse struct {
	OK         bool    `json:"ok"`
	Distance   float64 `json:"distance"`
	Fuel       float64 `json:"fuel"`
	Efficiency float64 `json:"efficiency"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := logbook.RecordInput{
		Date:     q.Get("date"),
		Odometer: q.Get("odometer"),
		Fuel:     q.Get("fuel"),
	}
	editing, _ := strconv.ParseInt(q.Get("editing"), 10, 64)

	p, ok := s.svc.Preview(in, editing)
	writeJSON(w, http.StatusOK, previewResponse{
		OK:         ok,
		Distance:   p.Distance,
		Fuel:       p.Fuel,
		Efficiency: p.Efficiency,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Summary(r.URL.Query().Get("month")))
}

type importResponse struct {
	logbook.ImportResult
	Message string `json:"message"`
}

// handleImport accepts a CSV body, or a multipart form with a "file" field.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
			return
		}
		defer file.Close()
		body = file
	}

	res, err := s.svc.ImportCSV(r.Context(), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{ImportResult: res, Message: res.Message()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if len(s.svc.View()) == 0 {
		writeServiceError(w, model.ErrNoRecords)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvio.FileName))
	if _, err := s.svc.ExportAll(w); err != nil {
		writeServiceError(w, err)
	}
}

type offlineResponse struct {
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
	Cache   string `json:"cache,omitempty"`
	State   string `json:"state,omitempty"`
	Clients int    `json:"clients"`
}

func (s *Server) handleOffline(w http.ResponseWriter, r *http.Request) {
	resp := offlineResponse{Enabled: s.reg != nil}
	if s.reg != nil {
		if c := s.reg.Active(); c != nil {
			resp.Active = true
			resp.Cache = c.Name()
			resp.State = c.State().String()
			resp.Clients = c.Clients()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
