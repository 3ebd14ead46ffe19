// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formhttp

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/formparse/lib/formdata"
	"github.com/bureau-foundation/formparse/lib/testutil"
)

func TestBoundary(t *testing.T) {
	tests := []struct {
		contentType string
		boundary    string
		charset     string
		wantErr     error
	}{
		{contentType: "multipart/form-data; boundary=abc", boundary: "abc"},
		{contentType: `Multipart/Form-Data; boundary="a b:c"; charset=latin1`, boundary: "a b:c", charset: "latin1"},
		{contentType: "", wantErr: ErrNotMultipart},
		{contentType: "application/json", wantErr: ErrNotMultipart},
		{contentType: "multipart/mixed; boundary=abc", wantErr: ErrNotMultipart},
		{contentType: "multipart/form-data; boundary=", wantErr: ErrNotMultipart},
		{contentType: "multipart/form-data", wantErr: ErrNoBoundary},
	}
	for _, test := range tests {
		boundary, charset, err := Boundary(test.contentType)
		if test.wantErr != nil {
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Boundary(%q) error = %v, want %v", test.contentType, err, test.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("Boundary(%q): %v", test.contentType, err)
			continue
		}
		if boundary != test.boundary || charset != test.charset {
			t.Errorf("Boundary(%q) = %q, %q; want %q, %q", test.contentType, boundary, charset, test.boundary, test.charset)
		}
	}
}

func newRequest(t *testing.T, contentType string, body []byte) *http.Request {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body))
	request.Header.Set("Content-Type", contentType)
	return request
}

func TestParseRequest(t *testing.T) {
	var body bytes.Buffer
	writer, err := formdata.NewWriter(&body, formdata.RandomBoundary())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := writer.WriteField("title", "Quarterly report"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := writer.WriteFile("report", "q3.csv", "text/csv", []byte("region,total\r\nnorth,12")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	form, err := ParseRequest(newRequest(t, writer.FormDataContentType(), body.Bytes()), formdata.Options{})
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if form.Get("title") != "Quarterly report" {
		t.Errorf("title = %q", form.Get("title"))
	}
	if file := form.GetFile("report"); file == nil || string(file.Content) != "region,total\r\nnorth,12" {
		t.Errorf("report = %+v", file)
	}
}

func TestParseRequestCharsetParameter(t *testing.T) {
	body := testutil.BuildBody("b", testutil.Field("city", "Z\xfcrich"))

	form, err := ParseRequest(newRequest(t, "multipart/form-data; boundary=b; charset=latin1", body), formdata.Options{})
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if form.Get("city") != "Zürich" {
		t.Errorf("city = %q, want Zürich", form.Get("city"))
	}

	// An explicit charset wins over the header.
	_, err = ParseRequest(newRequest(t, "multipart/form-data; boundary=b; charset=latin1", body), formdata.Options{Charset: "utf-8"})
	if !errors.Is(err, formdata.ErrInvalidEncoding) {
		t.Errorf("error = %v, want ErrInvalidEncoding", err)
	}
}

func TestParseRequestLimits(t *testing.T) {
	body := testutil.BuildBody("b", testutil.FilePart("f", "big.bin", "", bytes.Repeat([]byte("x"), 4096)))

	request := newRequest(t, "multipart/form-data; boundary=b", body)
	_, err := ParseRequest(request, formdata.Options{MaxBodyBytes: 1024})
	if !errors.Is(err, formdata.ErrLimitExceeded) {
		t.Fatalf("error = %v, want ErrLimitExceeded", err)
	}

	// Without a Content-Length the stream enforces the limit.
	request = newRequest(t, "multipart/form-data; boundary=b", nil)
	request.Body = io.NopCloser(bytes.NewReader(body))
	request.ContentLength = -1
	_, err = ParseRequest(request, formdata.Options{MaxBodyBytes: 1024})
	var parseErr *formdata.ParseError
	if !errors.As(err, &parseErr) || parseErr.Kind != formdata.KindLimitExceeded || parseErr.Offset != 1024 {
		t.Fatalf("error = %v, want limit exceeded at 1024", err)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrNotMultipart, http.StatusUnsupportedMediaType},
		{ErrNoBoundary, http.StatusBadRequest},
		{&formdata.ParseError{Kind: formdata.KindLimitExceeded}, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{&formdata.ParseError{Kind: formdata.KindTruncatedBody}, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusBadRequest},
	}
	for _, test := range tests {
		if got := StatusCode(test.err); got != test.want {
			t.Errorf("StatusCode(%v) = %d, want %d", test.err, got, test.want)
		}
	}
}

func TestHandler(t *testing.T) {
	received := make(chan *formdata.Form, 1)
	server := httptest.NewServer(Handler(formdata.Options{MaxBodyBytes: 1 << 10}, nil,
		func(w http.ResponseWriter, r *http.Request, form *formdata.Form) {
			received <- form
			w.WriteHeader(http.StatusNoContent)
		}))
	defer server.Close()

	post := func(contentType string, body []byte) int {
		t.Helper()
		response, err := http.Post(server.URL, contentType, bytes.NewReader(body))
		if err != nil {
			t.Fatalf("Post: %v", err)
		}
		io.Copy(io.Discard, response.Body)
		response.Body.Close()
		return response.StatusCode
	}

	status := post("multipart/form-data; boundary=b", testutil.BuildBody("b", testutil.Field("name", "value")))
	if status != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", status)
	}
	form := testutil.RequireReceive(t, received, 5*time.Second, "parsed form")
	if form.Get("name") != "value" {
		t.Errorf("name = %q", form.Get("name"))
	}

	if status := post("text/plain", []byte("hello")); status != http.StatusUnsupportedMediaType {
		t.Errorf("text/plain status = %d, want 415", status)
	}
	large := testutil.BuildBody("b", testutil.Field("big", strings.Repeat("x", 2048)))
	if status := post("multipart/form-data; boundary=b", large); status != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized status = %d, want 413", status)
	}
	if status := post("multipart/form-data; boundary=b", []byte("--b\r\nno-colon\r\n\r\n")); status != http.StatusBadRequest {
		t.Errorf("malformed status = %d, want 400", status)
	}
}
