// Package handlers provides HTTP request handlers for the scanbridge API.
// This file contains utilities shared by all handlers.
package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/anstrom/scanbridge/internal/api/middleware"
	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/orchestrator"
)

// Response status values shared with the web frontend.
const (
	statusSuccess = "success"
	statusError   = "error"
	statusStarted = "started"
)

const maxRequestSize = 1 << 20

// Orchestrator is the set of scan operations the handlers expose.
type Orchestrator interface {
	StartScan(ctx context.Context, req orchestrator.StartRequest) (*orchestrator.StartResult, error)
	StopScan(ctx context.Context, taskID string) error
	Status(ctx context.Context, taskID string) (*orchestrator.StatusResult, error)
	Results(ctx context.Context, taskID string) (*orchestrator.Results, error)
	DownloadReport(ctx context.Context, taskID string) ([]byte, error)
	ReportFormats(ctx context.Context) ([]orchestrator.ReportFormat, error)
	Discover(ctx context.Context, network string) (*discovery.Result, error)
	TestConnection(ctx context.Context) (*orchestrator.EngineInfo, error)
}

// ErrorResponse is the body of a failed request. Operation specific fields
// such as task_id or stage are added by the handler.
type ErrorResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error("Failed to encode JSON response",
			"request_id", middleware.GetRequestID(r),
			"error", err)
	}
}

// writeError writes an error response whose HTTP status follows the error
// classification.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, r, errors.HTTPStatus(err), errorBody(r, err))
}

func errorBody(r *http.Request, err error) ErrorResponse {
	resp := ErrorResponse{
		Status:    statusError,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(r),
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		resp.Code = string(code)
	}
	return resp
}

// errorFields flattens errorBody into a map so handlers can add fields the
// frontend expects.
func errorFields(r *http.Request, err error, extra map[string]interface{}) map[string]interface{} {
	body := errorBody(r, err)
	fields := map[string]interface{}{
		"status":     body.Status,
		"message":    body.Message,
		"timestamp":  body.Timestamp,
		"request_id": body.RequestID,
	}
	if body.Code != "" {
		fields["code"] = body.Code
	}
	if stage, ok := orchestrator.StageOf(err); ok {
		fields["stage"] = string(stage)
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// parseJSON decodes the request body into dest, rejecting unknown fields.
func parseJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.NewEngineError(errors.CodeValidation, "parse_request", "request body is empty")
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestSize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewEngineError(errors.CodeValidation, "parse_request", "request body too large")
		}
		return errors.WrapEngineError(errors.CodeValidation, "parse_request", "invalid JSON", err)
	}
	return nil
}

// validateStruct runs the struct tag validation and returns a Validation
// error naming the first failing field.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewEngineError(errors.CodeValidation, "validate_request",
			fmt.Sprintf("invalid %s: failed %q validation", fe.Field(), fe.Tag()))
	}
	return errors.WrapEngineError(errors.CodeValidation, "validate_request", "invalid request", err)
}

// taskIDFromPath extracts the task_id path variable.
func taskIDFromPath(r *http.Request) (string, error) {
	id := strings.TrimSpace(mux.Vars(r)["task_id"])
	if id == "" {
		return "", errors.NewEngineError(errors.CodeValidation, "parse_request", "task_id cannot be empty")
	}
	return id, nil
}
