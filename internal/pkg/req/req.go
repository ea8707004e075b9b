/*
Package req provides helper functions for HTTP request parsing and data binding.

It parses JSON bodies strictly and multipart forms under a size cap, translating failures into
errs.CustomError values the handlers can send back unchanged.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"majlis/internal/pkg/errs"
)

const (
	// MaxJSONBodySize caps JSON request bodies (64 KB); chat payloads are short text.
	MaxJSONBodySize int64 = 64 << 10

	// MaxFormMemory is the memory ParseMultipartForm may use before spilling files to disk.
	MaxFormMemory int64 = 8 << 20

	// MaxRequestFileSize caps the whole multipart request body, file included.
	MaxRequestFileSize int64 = 6 << 20
)

// BindJSON decodes the request body into dst, rejecting unknown fields and trailing data.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SetupMultipart parses a multipart form from the request, bounded by MaxRequestFileSize.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}
