// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/coverhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. CoverHub
// uses it to apply the configured conversion timeout and make sure the PDF
// pipeline's working directories exist.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Convert: appCfg.ConvertTimeout})

	for _, dir := range []string{appCfg.UploadsDir, appCfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	logger.Info("pdf working directories ready",
		zap.String("uploads", appCfg.UploadsDir),
		zap.String("temp", appCfg.TempDir))
	return nil
}
