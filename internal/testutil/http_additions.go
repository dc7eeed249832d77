package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// Upload posts a multipart form with one file part named "file".
func (c *HTTPTestClient) Upload(t *testing.T, path string, fields map[string]string, fileName string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field %s: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("Failed to write file content: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	return c.do(t, http.MethodPost, path, &buf, mw.FormDataContentType())
}

// PostForm posts application/x-www-form-urlencoded values, as OAuth2
// password clients do on login.
func (c *HTTPTestClient) PostForm(t *testing.T, path string, values url.Values) *http.Response {
	t.Helper()
	return c.do(t, http.MethodPost, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

// WithToken returns a copy of the client that authenticates with token.
func (c *HTTPTestClient) WithToken(token string) *HTTPTestClient {
	cp := *c
	cp.Token = token
	return &cp
}
