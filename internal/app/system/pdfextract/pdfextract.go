// internal/app/system/pdfextract/pdfextract.go
package pdfextract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrConversionFailed wraps any pdftoppm failure so handlers can map it
	// to a stable client-facing message.
	ErrConversionFailed = errors.New("failed to convert PDF to images")

	// ErrNotFound means the requested extraction/image does not exist.
	ErrNotFound = errors.New("image not found")

	// ErrInvalidRequest means the extraction ID or filename is malformed.
	ErrInvalidRequest = errors.New("invalid image request")
)

// Image is one extracted page. Data is populated only by ExtractInline;
// Path and URL only by ExtractToFiles.
type Image struct {
	PageNumber int
	Filename   string
	Size       int64
	MimeType   string
	Data       []byte
	Path       string
	URL        string
}

// Extractor converts PDFs to page images by shelling out to poppler's
// pdftoppm. TempDir holds conversion output, UploadsDir the incoming PDFs
// and persisted extractions (one directory per extraction ID).
type Extractor struct {
	uploadsDir string
	tempDir    string
	pdftoppm   string
	log        *zap.Logger
}

func New(uploadsDir, tempDir, pdftoppmPath string, log *zap.Logger) *Extractor {
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		uploadsDir: uploadsDir,
		tempDir:    tempDir,
		pdftoppm:   pdftoppmPath,
		log:        log,
	}
}

// EnsureDirs creates the uploads and temp directories if missing. Called
// once at startup.
func (e *Extractor) EnsureDirs() error {
	for _, dir := range []string{e.uploadsDir, e.tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// ExtractInline converts pdf to 300-DPI PNGs and returns the pages with
// their bytes. All intermediate files are removed before returning.
func (e *Extractor) ExtractInline(ctx context.Context, pdf []byte) ([]Image, error) {
	id := uuid.NewString()
	pdfPath, pages, err := e.convert(ctx, id, pdf)
	if err != nil {
		return nil, err
	}
	defer e.cleanup(pdfPath, pages)

	images := make([]Image, 0, len(pages))
	for i, p := range pages {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read extracted page: %w", err)
		}
		images = append(images, Image{
			PageNumber: i + 1,
			Filename:   filepath.Base(p),
			Size:       int64(len(data)),
			MimeType:   MimeFor(p),
			Data:       data,
		})
	}
	return images, nil
}

// ExtractToFiles converts pdf and moves the pages into a per-extraction
// directory under the uploads dir. Returns the extraction ID and page
// metadata; URLs point at the image-serving route.
func (e *Extractor) ExtractToFiles(ctx context.Context, pdf []byte) (string, []Image, error) {
	id := uuid.NewString()
	pdfPath, pages, err := e.convert(ctx, id, pdf)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if err := os.Remove(pdfPath); err != nil {
			e.log.Warn("cleanup failed", zap.String("path", pdfPath), zap.Error(err))
		}
	}()

	destDir := filepath.Join(e.uploadsDir, "extracted_"+id)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		e.cleanup("", pages)
		return "", nil, fmt.Errorf("create extraction dir: %w", err)
	}

	images := make([]Image, 0, len(pages))
	for i, p := range pages {
		name := filepath.Base(p)
		dest := filepath.Join(destDir, name)
		if err := os.Rename(p, dest); err != nil {
			e.cleanup("", pages[i:])
			return "", nil, fmt.Errorf("persist extracted page: %w", err)
		}
		info, err := os.Stat(dest)
		if err != nil {
			return "", nil, fmt.Errorf("stat extracted page: %w", err)
		}
		images = append(images, Image{
			PageNumber: i + 1,
			Filename:   name,
			Size:       info.Size(),
			MimeType:   MimeFor(name),
			Path:       dest,
			URL:        fmt.Sprintf("/api/pdf/images/%s/%s", id, name),
		})
	}
	return id, images, nil
}

// Resolve maps an extraction ID and page filename to the on-disk path of a
// persisted image. The ID must be a UUID and the filename a bare name;
// anything else is ErrInvalidRequest, so requests cannot escape the
// uploads directory.
func (e *Extractor) Resolve(extractionID, filename string) (string, error) {
	if _, err := uuid.Parse(extractionID); err != nil {
		return "", ErrInvalidRequest
	}
	if filename == "" || filename != filepath.Base(filename) ||
		strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return "", ErrInvalidRequest
	}
	path := filepath.Join(e.uploadsDir, "extracted_"+extractionID, filename)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// MimeFor returns the content type for an extracted image filename.
func MimeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}

/* ----------------------------- internals ----------------------------- */

// convert writes the PDF to the uploads dir, runs pdftoppm, and returns the
// uploaded PDF path plus the sorted page-image paths in the temp dir.
func (e *Extractor) convert(ctx context.Context, id string, pdf []byte) (string, []string, error) {
	pdfPath := filepath.Join(e.uploadsDir, "pdf_"+id+".pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return "", nil, fmt.Errorf("save uploaded PDF: %w", err)
	}

	prefix := filepath.Join(e.tempDir, "extracted_"+id)
	cmd := exec.CommandContext(ctx, e.pdftoppm, "-png", "-r", "300", pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		e.log.Error("pdftoppm failed",
			zap.String("pdf", pdfPath),
			zap.ByteString("output", out),
			zap.Error(err))
		if rmErr := os.Remove(pdfPath); rmErr != nil {
			e.log.Warn("cleanup failed", zap.String("path", pdfPath), zap.Error(rmErr))
		}
		return "", nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	pages, err := e.listPages(id)
	if err != nil {
		e.cleanup(pdfPath, nil)
		return "", nil, err
	}
	return pdfPath, pages, nil
}

// listPages enumerates the temp dir for this extraction's page images.
// pdftoppm numbers pages with zero-padded suffixes, so a lexical sort is
// also page order.
func (e *Extractor) listPages(id string) ([]string, error) {
	entries, err := os.ReadDir(e.tempDir)
	if err != nil {
		return nil, fmt.Errorf("list temp dir: %w", err)
	}
	prefix := "extracted_" + id
	var pages []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".png", ".jpg", ".jpeg":
			pages = append(pages, filepath.Join(e.tempDir, name))
		}
	}
	sort.Strings(pages)
	return pages, nil
}

func (e *Extractor) cleanup(pdfPath string, pages []string) {
	if pdfPath != "" {
		if err := os.Remove(pdfPath); err != nil {
			e.log.Warn("cleanup failed", zap.String("path", pdfPath), zap.Error(err))
		}
	}
	for _, p := range pages {
		if err := os.Remove(p); err != nil {
			e.log.Warn("cleanup failed", zap.String("path", p), zap.Error(err))
		}
	}
}
