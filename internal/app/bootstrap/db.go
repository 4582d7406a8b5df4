// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/coverhub/internal/app/system/indexes"
	"github.com/dalemusser/coverhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnsureSchema creates the collections, schema validators, and indexes the
// app depends on. The unique indexes here are load-bearing: the policy
// store's conflict handling assumes they exist.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("collection validator setup failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	return nil
}
