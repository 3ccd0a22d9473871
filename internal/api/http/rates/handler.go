package rates

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"service-exchange/internal/models"
	"service-exchange/internal/service/logger"
	"service-exchange/internal/service/rates"
)

type Handler struct {
	rates  *rates.Service
	logger logger.RequestLogger
}

func New(r *rates.Service, l logger.RequestLogger) *Handler {
	return &Handler{rates: r, logger: l}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/rates", h.getRates)
	mux.HandleFunc("/api/v1/rates/convert", h.convert)
	mux.HandleFunc("/api/v1/trend", h.getTrend)
	mux.HandleFunc("/api/v1/dates", h.getDates)
	mux.HandleFunc("/download", h.download)
}

type snapshotResponse struct {
	Date     models.Date            `json:"date"`
	Previous *models.Date           `json:"previous"`
	Next     *models.Date           `json:"next"`
	Quotes   []models.CurrencyQuote `json:"quotes"`
}

func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}

	snap, err := h.rates.ResolveSnapshot(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	prev, next, err := h.rates.Neighbors(r.Context(), snap.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, r, snap.Date, snapshotResponse{
		Date:     snap.Date,
		Previous: prev,
		Next:     next,
		Quotes:   snap.Quotes,
	})
}

type convertResponse struct {
	Date       models.Date     `json:"date"`
	Currency   string          `json:"currency"`
	Kind       models.RateKind `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Rate       decimal.Decimal `json:"rate"`
	Result     decimal.Decimal `json:"result"`
	Settlement string          `json:"settlement"`
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}
	q := r.URL.Query()

	kind, err := models.ParseRateKind(q.Get("kind"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		h.fail(w, r, models.BizError(models.CodeInvalidAmount, "amount must be a number"))
		return
	}

	snap, err := h.rates.ResolveSnapshot(r.Context(), q.Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	currency := q.Get("currency")
	result, err := rates.Convert(snap, amount, currency, kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rate, err := rates.LookupRate(snap, currency, kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, r, snap.Date, convertResponse{
		Date:       snap.Date,
		Currency:   currency,
		Kind:       kind,
		Amount:     amount,
		Rate:       rate,
		Result:     result,
		Settlement: models.SettlementCurrency,
	})
}

func (h *Handler) getTrend(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}

	series, err := h.rates.BuildTrend(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, r, models.Date{}, struct {
		Series models.TrendSeries `json:"series"`
	}{Series: series})
}

func (h *Handler) getDates(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}

	dates, err := h.rates.Dates(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, r, models.Date{}, struct {
		Dates []models.Date `json:"dates"`
	}{Dates: dates})
}

// download serves the latest persisted record unmodified.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	if !h.requireGet(w, r) {
		return
	}

	raw, filename, err := h.rates.LatestRaw(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	st := http.StatusOK
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(raw)
	_ = h.logger.LogRequest(r.Context(), r.URL.Path, &st, nil)
}

func (h *Handler) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	st := http.StatusMethodNotAllowed
	w.WriteHeader(st)
	_ = h.logger.LogRequest(r.Context(), r.URL.Path, &st, nil)
	return false
}

func (h *Handler) ok(w http.ResponseWriter, r *http.Request, asOf models.Date, body any) {
	st := http.StatusOK
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(body)

	var dateAsOf *string
	if !asOf.IsZero() {
		s := asOf.String()
		dateAsOf = &s
	}
	_ = h.logger.LogRequest(r.Context(), r.URL.Path, &st, dateAsOf)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	st := writeErr(w, err)
	_ = h.logger.LogRequest(r.Context(), r.URL.Path, &st, nil)
}

func writeErr(w http.ResponseWriter, err error) int {
	bizErr := &models.BusinessError{}
	if !errors.As(err, &bizErr) {
		bizErr = models.BizError("internal_error", "internal error")
	}

	status := http.StatusBadRequest
	switch bizErr.Code {
	case models.CodeNoData, models.CodeNotFound, models.CodeCurrencyNotFound:
		status = http.StatusNotFound
	case "internal_error":
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(bizErr)
	return status
}
