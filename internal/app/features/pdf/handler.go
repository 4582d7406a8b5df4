// Package pdf implements PDF upload and page-image extraction endpoints.
package pdf

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/coverhub/internal/app/system/limits"
	"github.com/dalemusser/coverhub/internal/app/system/pdfextract"
	"github.com/dalemusser/coverhub/internal/app/system/respond"
	"github.com/dalemusser/coverhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Extractor *pdfextract.Extractor
	Log       *zap.Logger
}

func NewHandler(extractor *pdfextract.Extractor, logger *zap.Logger) *Handler {
	return &Handler{Extractor: extractor, Log: logger}
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	respond.JSON(w, status, map[string]any{"error": msg})
}

// readUpload pulls the "file" part out of the multipart form and enforces
// the PDF content type. Returns nil after writing the error response.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) []byte {
	if err := r.ParseMultipartForm(limits.MaxPDFUploadSize); err != nil {
		writeErr(w, http.StatusBadRequest, "No file uploaded")
		return nil
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "No file uploaded")
		return nil
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		writeErr(w, http.StatusBadRequest, "Only PDF files are allowed")
		return nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.Log.Error("pdf upload read failed", zap.Error(err))
		respond.JSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to process PDF",
			"details": err.Error(),
		})
		return nil
	}
	return data
}

type inlineImage struct {
	PageNumber int    `json:"pageNumber"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Base64     string `json:"base64"`
	MimeType   string `json:"mimeType"`
}

// ExtractImages handles POST /api/pdf/extract-images: pages come back
// base64-encoded in the response and nothing is persisted.
func (h *Handler) ExtractImages(w http.ResponseWriter, r *http.Request) {
	data := h.readUpload(w, r)
	if data == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Convert(), h.Log, "pdf extract inline")
	defer cancel()

	images, err := h.Extractor.ExtractInline(ctx, data)
	if err != nil {
		h.writeExtractError(w, err)
		return
	}

	out := make([]inlineImage, 0, len(images))
	for _, img := range images {
		out = append(out, inlineImage{
			PageNumber: img.PageNumber,
			Filename:   img.Filename,
			Size:       img.Size,
			Base64:     base64.StdEncoding.EncodeToString(img.Data),
			MimeType:   img.MimeType,
		})
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Images extracted successfully",
		"totalPages": len(out),
		"images":     out,
	})
}

type fileImage struct {
	PageNumber int    `json:"pageNumber"`
	Filename   string `json:"filename"`
	FilePath   string `json:"filePath"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mimeType"`
}

// ExtractImagesFiles handles POST /api/pdf/extract-images-files: pages are
// persisted under the extraction ID and returned as URLs.
func (h *Handler) ExtractImagesFiles(w http.ResponseWriter, r *http.Request) {
	data := h.readUpload(w, r)
	if data == nil {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Convert(), h.Log, "pdf extract to files")
	defer cancel()

	id, images, err := h.Extractor.ExtractToFiles(ctx, data)
	if err != nil {
		h.writeExtractError(w, err)
		return
	}

	out := make([]fileImage, 0, len(images))
	for _, img := range images {
		out = append(out, fileImage{
			PageNumber: img.PageNumber,
			Filename:   img.Filename,
			FilePath:   img.Path,
			URL:        img.URL,
			Size:       img.Size,
			MimeType:   img.MimeType,
		})
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Images extracted successfully",
		"totalPages":   len(out),
		"extractionId": id,
		"images":       out,
	})
}

// ServeImage handles GET /api/pdf/images/{extractionID}/{filename}.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	extractionID := chi.URLParam(r, "extractionID")
	filename := chi.URLParam(r, "filename")

	path, err := h.Extractor.Resolve(extractionID, filename)
	if err != nil {
		if errors.Is(err, pdfextract.ErrInvalidRequest) {
			writeErr(w, http.StatusBadRequest, "Invalid image request")
			return
		}
		writeErr(w, http.StatusNotFound, "Image not found")
		return
	}

	w.Header().Set("Content-Type", pdfextract.MimeFor(filename))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}

func (h *Handler) writeExtractError(w http.ResponseWriter, err error) {
	h.Log.Error("pdf extraction failed", zap.Error(err))
	msg := "Failed to process PDF"
	if errors.Is(err, pdfextract.ErrConversionFailed) {
		msg = "Failed to convert PDF to images"
	}
	respond.JSON(w, http.StatusInternalServerError, map[string]any{
		"error":   msg,
		"details": err.Error(),
	})
}
