// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authfeature "github.com/dalemusser/coverhub/internal/app/features/authapi"
	healthfeature "github.com/dalemusser/coverhub/internal/app/features/health"
	pdffeature "github.com/dalemusser/coverhub/internal/app/features/pdf"
	policiesfeature "github.com/dalemusser/coverhub/internal/app/features/policies"
	usersfeature "github.com/dalemusser/coverhub/internal/app/features/users"
	policystore "github.com/dalemusser/coverhub/internal/app/store/policies"
	userstore "github.com/dalemusser/coverhub/internal/app/store/users"
	"github.com/dalemusser/coverhub/internal/app/system/auth"
	"github.com/dalemusser/coverhub/internal/app/system/pdfextract"
	"github.com/dalemusser/coverhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. CoverHub wires the stores and the PDF
// extractor, builds the JWT issuer, and mounts the API feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTExpiry)
	requireAuth := auth.RequireAuth(tokens)

	users := userstore.New(deps.MongoDatabase)
	policies := policystore.New(deps.MongoDatabase)
	extractor := pdfextract.New(appCfg.UploadsDir, appCfg.TempDir, appCfg.PdftoppmPath, logger)

	r := chi.NewRouter()

	// Root banner doubles as the health check.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, apiVersion, logger)
	r.Mount("/", healthfeature.Routes(healthHandler))

	usersHandler := usersfeature.NewHandler(users, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler))

	authHandler := authfeature.NewHandler(users, tokens, ratelimit.NewAuthLimiter(), logger)
	r.Mount("/api/auth", authfeature.Routes(authHandler, requireAuth))

	policiesHandler := policiesfeature.NewHandler(policies, logger)
	r.Mount("/api/policies", policiesfeature.Routes(policiesHandler, requireAuth))

	pdfHandler := pdffeature.NewHandler(extractor, logger)
	r.Mount("/api/pdf", pdffeature.Routes(pdfHandler))

	return r, nil
}
