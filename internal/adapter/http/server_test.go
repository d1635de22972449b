package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/met-climate-etl/internal/adapter/http"
	"github.com/couchcryptid/met-climate-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockQueries struct {
	filter        domain.MonthlyFilter
	packRegion    string
	packParameter string
	packYear      int
	start, end    int
	err           error
}

func (m *mockQueries) ListRegions(_ context.Context) ([]domain.Region, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Region{{Code: "UK", Name: "United Kingdom"}, {Code: "Wales", Name: "Wales"}}, nil
}

func (m *mockQueries) ListMonthly(_ context.Context, f domain.MonthlyFilter) ([]domain.MonthlyRecord, error) {
	m.filter = f
	if m.err != nil {
		return nil, m.err
	}
	v := 8.1
	return []domain.MonthlyRecord{{Region: "UK", Parameter: "Tmax", Year: 2020, Month: 1, MonthName: "Jan", Value: &v}}, nil
}

func (m *mockQueries) YearlyPack(_ context.Context, region, parameter string, year int) (domain.YearlyPack, error) {
	m.packRegion, m.packParameter, m.packYear = region, parameter, year
	if m.err != nil {
		return domain.YearlyPack{}, m.err
	}
	pack := domain.YearlyPack{Region: "UK", Parameter: parameter, Year: year, Months: domain.NewMonthPack()}
	v := 120.4
	pack.Months.Set(1, &v)
	return pack, nil
}

func (m *mockQueries) AllYearsPack(_ context.Context, region, parameter string, start, end int) (domain.AllYearsPack, error) {
	m.packRegion, m.packParameter, m.start, m.end = region, parameter, start, end
	if m.err != nil {
		return domain.AllYearsPack{}, m.err
	}
	return domain.AllYearsPack{Region: "UK", Parameter: parameter, Data: map[int]domain.MonthPack{2000: domain.NewMonthPack()}}, nil
}

func newTestServer(readyErr error, q *mockQueries) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, q, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockQueries{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockQueries{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("not ready yet"), &mockQueries{}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockQueries{}), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRegions(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockQueries{}), "/api/regions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body []domain.Region
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []domain.Region{{Code: "UK", Name: "United Kingdom"}, {Code: "Wales", Name: "Wales"}}, body)
}

func TestRegions_StoreError(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockQueries{err: errors.New("db locked")}), "/api/regions")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db locked")
}

func TestParameters(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockQueries{}), "/api/parameters")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 7)
	assert.Equal(t, map[string]string{"code": "Tmax", "label": "Max temp"}, body[0])
}

func TestMonthly_PassesFilters(t *testing.T) {
	q := &mockQueries{}
	rec := get(t, newTestServer(nil, q), "/api/monthly?region=uk&parameter=tmax&start=1990&end=2000&month=1")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domain.MonthlyFilter{Region: "uk", Parameter: "tmax", Start: 1990, End: 2000, Month: 1}, q.filter)
	assert.JSONEq(t,
		`[{"region":"UK","parameter":"Tmax","year":2020,"month":1,"month_name":"Jan","value":8.1}]`,
		rec.Body.String())
}

func TestMonthly_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"month too large", "month=13"},
		{"month negative", "month=-1"},
		{"end before start", "start=2000&end=1990"},
		{"non-integer start", "start=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(nil, &mockQueries{}), "/api/monthly?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestYearlyPack(t *testing.T) {
	q := &mockQueries{}
	rec := get(t, newTestServer(nil, q), "/api/monthly-pack/UK/Rain/2000")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "UK", q.packRegion)
	assert.Equal(t, "Rain", q.packParameter)
	assert.Equal(t, 2000, q.packYear)

	var body struct {
		Region string              `json:"region"`
		Year   int                 `json:"year"`
		Months map[string]*float64 `json:"months"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2000, body.Year)
	assert.Len(t, body.Months, 12)
	require.NotNil(t, body.Months["Jan"])
	assert.Equal(t, 120.4, *body.Months["Jan"])
	assert.Nil(t, body.Months["Dec"])
}

func TestYearlyPack_BadYear(t *testing.T) {
	for _, year := range []string{"abc", "0", "-5"} {
		rec := get(t, newTestServer(nil, &mockQueries{}), "/api/monthly-pack/UK/Rain/"+year)
		assert.Equal(t, http.StatusBadRequest, rec.Code, year)
	}
}

func TestYearlyPack_UnknownRegion(t *testing.T) {
	q := &mockQueries{err: fmt.Errorf("%w: Atlantis", domain.ErrRegionNotFound)}
	rec := get(t, newTestServer(nil, q), "/api/monthly-pack/Atlantis/Rain/2000")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAllYearsPack(t *testing.T) {
	q := &mockQueries{}
	rec := get(t, newTestServer(nil, q), "/api/monthly-pack/Wales/Frost?start=1990&end=1995")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Wales", q.packRegion)
	assert.Equal(t, "Frost", q.packParameter)
	assert.Equal(t, 1990, q.start)
	assert.Equal(t, 1995, q.end)
	assert.Contains(t, rec.Body.String(), `"2000":{`)
}

func TestAllYearsPack_Validation(t *testing.T) {
	rec := get(t, newTestServer(nil, &mockQueries{}), "/api/monthly-pack/Wales/Frost?start=2000&end=1990")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
