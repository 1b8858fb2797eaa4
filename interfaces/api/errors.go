package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/felixgeelhaar/chartgen/application"
	"github.com/felixgeelhaar/chartgen/domain/chart"
	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/record"
	"github.com/felixgeelhaar/chartgen/domain/session"
	"github.com/felixgeelhaar/chartgen/domain/validation"
	"github.com/felixgeelhaar/chartgen/infrastructure/datagen"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message, field string) {
	var eb errorBody
	eb.Error.Code = code
	eb.Error.Message = message
	eb.Error.Field = field
	writeJSON(w, status, eb)
}

// writeFailure maps a workbench error onto a status code.
func writeFailure(w http.ResponseWriter, err error) {
	var (
		verr *validation.Error
		aerr *datagen.APIError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_input", verr.Message, verr.Field)
	case errors.Is(err, dataset.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), "")
	case errors.Is(err, chart.ErrUnknownChartType):
		writeError(w, http.StatusBadRequest, "unknown_chart_type", err.Error(), "chart_type")
	case errors.Is(err, record.ErrEmptyWindow):
		writeError(w, http.StatusUnprocessableEntity, "empty_window", err.Error(), "")
	case errors.Is(err, record.ErrNoRecords):
		writeError(w, http.StatusUnprocessableEntity, "no_records", err.Error(), "")
	case errors.Is(err, session.ErrNoData):
		writeError(w, http.StatusNotFound, "no_data", err.Error(), "")
	case errors.Is(err, application.ErrNoChart):
		writeError(w, http.StatusNotFound, "no_chart", err.Error(), "")
	case errors.Is(err, application.ErrBusy):
		writeError(w, http.StatusConflict, "busy", err.Error(), "")
	case errors.Is(err, datagen.ErrServiceUnreachable):
		writeError(w, http.StatusBadGateway, "service_unreachable", err.Error(), "")
	case errors.As(err, &aerr):
		writeError(w, http.StatusBadGateway, "service_error", aerr.Error(), "")
	case errors.Is(err, datagen.ErrGenerationFailed), errors.Is(err, datagen.ErrMalformedResponse):
		writeError(w, http.StatusBadGateway, "generation_failed", err.Error(), "")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err.Error(), "")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", "")
	}
}
