/*
Package resp writes the JSON envelope every REST endpoint answers with.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/logx"
)

// JSONResponse is the envelope sent to clients.
type JSONResponse struct {
	// Code is 0 on success, an errs code otherwise.
	Code int `json:"code"`

	// Message is the user-facing status text.
	Message string `json:"message"`

	// Data is the optional payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the content headers and writes payload with httpStatus.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	if _, err := w.Write(response); err != nil {
		logx.Warn("Failed to write JSON response", "error", err.Error())
	}
}

// RespondSuccess sends data with code 0 and HTTP 200.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondSuccessMessage(w, r, "success", data)
}

// RespondSuccessMessage sends data with code 0, HTTP 200 and a user-facing message.
func RespondSuccessMessage(w http.ResponseWriter, r *http.Request, message string, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// RespondError sends customErr's code and message with its HTTP status.
// A nil customErr is answered as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
