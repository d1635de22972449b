package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/met-climate-etl/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Queries is the read side of the monthly store.
type Queries interface {
	ListRegions(ctx context.Context) ([]domain.Region, error)
	ListMonthly(ctx context.Context, f domain.MonthlyFilter) ([]domain.MonthlyRecord, error)
	YearlyPack(ctx context.Context, region, parameter string, year int) (domain.YearlyPack, error)
	AllYearsPack(ctx context.Context, region, parameter string, start, end int) (domain.AllYearsPack, error)
}

type apiHandler struct {
	queries Queries
	logger  *slog.Logger
}

// monthlyQuery holds the /api/monthly filters. Zero means unset.
type monthlyQuery struct {
	Region    string `validate:"omitempty,max=64"`
	Parameter string `validate:"omitempty,max=20"`
	Start     int    `validate:"omitempty,min=1,max=9999"`
	End       int    `validate:"omitempty,min=1,max=9999,gtefield=Start"`
	Month     int    `validate:"omitempty,min=1,max=12"`
}

// packQuery holds the path and query values of the pack endpoints.
type packQuery struct {
	Region    string `validate:"required,max=64"`
	Parameter string `validate:"required,max=20"`
	Year      int    `validate:"omitempty,min=1,max=9999"`
	Start     int    `validate:"omitempty,min=1,max=9999"`
	End       int    `validate:"omitempty,min=1,max=9999,gtefield=Start"`
}

type parameterInfo struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

func (h *apiHandler) regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.queries.ListRegions(r.Context())
	if err != nil {
		h.internalError(w, "list regions", err)
		return
	}
	writeJSON(w, http.StatusOK, regions)
}

func (h *apiHandler) parameters(w http.ResponseWriter, _ *http.Request) {
	params := domain.Parameters()
	out := make([]parameterInfo, len(params))
	for i, p := range params {
		out[i] = parameterInfo{Code: string(p), Label: p.Label()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *apiHandler) monthly(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	q := monthlyQuery{Region: qp.Get("region"), Parameter: qp.Get("parameter")}

	var err error
	if q.Start, err = intParam(qp.Get("start"), "start"); err == nil {
		if q.End, err = intParam(qp.Get("end"), "end"); err == nil {
			q.Month, err = intParam(qp.Get("month"), "month")
		}
	}
	if err == nil {
		err = validate.Struct(q)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.queries.ListMonthly(r.Context(), domain.MonthlyFilter(q))
	if err != nil {
		h.internalError(w, "list monthly", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *apiHandler) yearlyPack(w http.ResponseWriter, r *http.Request) {
	q := packQuery{Region: r.PathValue("region"), Parameter: r.PathValue("parameter")}
	year, err := intParam(r.PathValue("year"), "year")
	if err == nil {
		q.Year = year
		err = validate.Struct(q)
	}
	if err == nil && q.Year == 0 {
		err = errors.New("year is required")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pack, err := h.queries.YearlyPack(r.Context(), q.Region, q.Parameter, q.Year)
	if err != nil {
		h.queryError(w, "yearly pack", err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

func (h *apiHandler) allYearsPack(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	q := packQuery{Region: r.PathValue("region"), Parameter: r.PathValue("parameter")}

	var err error
	if q.Start, err = intParam(qp.Get("start"), "start"); err == nil {
		q.End, err = intParam(qp.Get("end"), "end")
	}
	if err == nil {
		err = validate.Struct(q)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pack, err := h.queries.AllYearsPack(r.Context(), q.Region, q.Parameter, q.Start, q.End)
	if err != nil {
		h.queryError(w, "all years pack", err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

func (h *apiHandler) queryError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrRegionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.internalError(w, op, err)
}

func (h *apiHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("api query failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// intParam parses an optional integer parameter; empty yields zero.
func intParam(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
