// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging level, CORS, timeouts). AppConfig is everything specific to
// CoverHub: database coordinates, token signing, and the directories the
// PDF pipeline works in.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// JWT bearer-token configuration
	JWTSecret string
	JWTExpiry time.Duration

	// PDF extraction pipeline
	UploadsDir     string        // uploaded PDFs and persisted extractions
	TempDir        string        // pdftoppm conversion output
	PdftoppmPath   string        // poppler binary, blank means $PATH lookup
	ConvertTimeout time.Duration // pdftoppm run budget
}
