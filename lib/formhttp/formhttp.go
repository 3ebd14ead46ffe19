// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formhttp

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/bureau-foundation/formparse/lib/formdata"
)

var (
	// ErrNotMultipart is returned when the Content-Type is missing,
	// unparsable, or not multipart/form-data.
	ErrNotMultipart = errors.New("formhttp: request is not multipart/form-data")

	// ErrNoBoundary is returned for multipart/form-data without a
	// boundary parameter.
	ErrNoBoundary = errors.New("formhttp: content type has no boundary parameter")
)

// Boundary returns the boundary and charset parameters of a
// multipart/form-data Content-Type. The charset is empty when absent.
func Boundary(contentType string) (boundary, charset string, err error) {
	if contentType == "" {
		return "", "", ErrNotMultipart
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotMultipart, err)
	}
	if mediaType != "multipart/form-data" {
		return "", "", fmt.Errorf("%w: got %s", ErrNotMultipart, mediaType)
	}
	boundary = params["boundary"]
	if boundary == "" {
		return "", "", ErrNoBoundary
	}
	return boundary, params["charset"], nil
}

// ParseRequest parses the body of a multipart/form-data request. A
// charset parameter on the request's Content-Type applies when
// options.Charset is empty. A declared Content-Length above
// options.MaxBodyBytes is rejected before any of the body is read.
func ParseRequest(r *http.Request, options formdata.Options) (*formdata.Form, error) {
	boundary, charset, err := Boundary(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	if options.Charset == "" {
		options.Charset = charset
	}
	parser, err := formdata.NewParser(boundary, options)
	if err != nil {
		return nil, err
	}
	if limit := options.MaxBodyBytes; limit > 0 && r.ContentLength > limit {
		return nil, &formdata.ParseError{
			Kind:   formdata.KindLimitExceeded,
			Offset: limit,
			Part:   -1,
			Detail: fmt.Sprintf("declared Content-Length %d exceeds %d bytes", r.ContentLength, limit),
		}
	}
	return parser.ParseReader(r.Body)
}

// StatusCode returns the HTTP status for an error from [ParseRequest]:
// 415 when the request is not multipart/form-data, 413 when a limit
// was exceeded, and 400 for everything else.
func StatusCode(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotMultipart):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, formdata.ErrLimitExceeded), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

// Handler returns an http.Handler that parses each request and passes
// the form to next. Requests that fail to parse are answered with
// [StatusCode] and logged at Info to logger, which may be nil.
func Handler(options formdata.Options, logger *slog.Logger, next func(http.ResponseWriter, *http.Request, *formdata.Form)) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form, err := ParseRequest(r, options)
		if err != nil {
			status := StatusCode(err)
			logger.Info("rejected multipart request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"error", err,
			)
			http.Error(w, err.Error(), status)
			return
		}
		next(w, r, form)
	})
}
