// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxPolicyBodySize is the maximum size for policy create/update JSON bodies.
	MaxPolicyBodySize = 1 << 20 // 1 MB

	// MaxPDFUploadSize is the maximum size for PDF extraction uploads.
	// Scanned policy documents at 300 DPI can run large, so this is
	// deliberately generous.
	MaxPDFUploadSize = 32 << 20 // 32 MB
)
