package pdf_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dalemusser/coverhub/internal/app/features/pdf"
	"github.com/dalemusser/coverhub/internal/app/system/pdfextract"
	"github.com/dalemusser/coverhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, convert bool) (chi.Router, *pdfextract.Extractor) {
	t.Helper()
	root := t.TempDir()

	bin := "pdftoppm"
	if convert {
		if runtime.GOOS == "windows" {
			t.Skip("stub converter requires a POSIX shell")
		}
		script := "#!/bin/sh\nprintf 'one' > \"$5-1.png\"\nprintf 'twotwo' > \"$5-2.png\"\n"
		bin = filepath.Join(root, "fake-pdftoppm")
		if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}

	e := pdfextract.New(filepath.Join(root, "uploads"), filepath.Join(root, "temp"), bin, zap.NewNop())
	if err := e.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	r := chi.NewRouter()
	r.Mount("/api/pdf", pdf.Routes(pdf.NewHandler(e, zap.NewNop())))
	return r, e
}

// pdfUpload builds a multipart body with one "file" part of the given
// content type.
func pdfUpload(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="policy.pdf"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestExtractImages(t *testing.T) {
	router, _ := newRouter(t, true)

	body, contentType := pdfUpload(t, "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/pdf/extract-images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp struct {
		Success    bool `json:"success"`
		TotalPages int  `json:"totalPages"`
		Images     []struct {
			PageNumber int    `json:"pageNumber"`
			Base64     string `json:"base64"`
			MimeType   string `json:"mimeType"`
		} `json:"images"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if !resp.Success || resp.TotalPages != 2 || len(resp.Images) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Images[0].Base64 == "" || resp.Images[0].MimeType != "image/png" {
		t.Errorf("image[0] = %+v", resp.Images[0])
	}
}

func TestExtractImagesFiles_AndServe(t *testing.T) {
	router, _ := newRouter(t, true)

	body, contentType := pdfUpload(t, "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/pdf/extract-images-files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp struct {
		ExtractionID string `json:"extractionId"`
		Images       []struct {
			Filename string `json:"filename"`
			URL      string `json:"url"`
		} `json:"images"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if _, err := uuid.Parse(resp.ExtractionID); err != nil {
		t.Fatalf("extractionId %q is not a UUID: %v", resp.ExtractionID, err)
	}
	if len(resp.Images) != 2 {
		t.Fatalf("got %d images, want 2", len(resp.Images))
	}

	// The returned URL serves the image back.
	req = httptest.NewRequest(http.MethodGet, resp.Images[0].URL, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
	if rec.Body.String() != "one" {
		t.Errorf("body = %q, want the first page bytes", rec.Body.String())
	}
}

func TestExtract_UploadErrors(t *testing.T) {
	router, _ := newRouter(t, false)

	// No multipart body at all.
	req := httptest.NewRequest(http.MethodPost, "/api/pdf/extract-images", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rec, "No file uploaded")

	// Wrong content type.
	body, contentType := pdfUpload(t, "image/png")
	req = httptest.NewRequest(http.MethodPost, "/api/pdf/extract-images", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rec, "Only PDF files are allowed")
}

func TestServeImage_Errors(t *testing.T) {
	router, _ := newRouter(t, false)

	// Non-UUID extraction ID.
	req := httptest.NewRequest(http.MethodGet, "/api/pdf/images/1699999999999/page-1.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rec, "Invalid image request")

	// Valid UUID but no such extraction.
	req = httptest.NewRequest(http.MethodGet, "/api/pdf/images/"+uuid.NewString()+"/page-1.png", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	testutil.AssertBodyContains(t, rec, "Image not found")
}
