package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/binocarlos/diggerpassport/internal/auth/handler"
	"github.com/binocarlos/diggerpassport/internal/auth/resolver"
	"github.com/binocarlos/diggerpassport/internal/config"
	"github.com/binocarlos/diggerpassport/internal/session"
	"github.com/binocarlos/diggerpassport/internal/store"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	bridge := session.NewBridge(infra.Cache)
	identityResolver := resolver.NewService(store.NewPG(infra.DB))

	registry, localEnabled, err := buildRegistry(ctx, cfg)
	if err != nil {
		infra.Close()
		return nil, nil, err
	}

	authHandler := handler.NewHandler(
		cfg.Mountpath,
		handler.Routes{
			Success: cfg.SuccessRoute,
			Failure: cfg.FailureRoute,
		},
		registry,
		identityResolver,
		bridge,
		localEnabled,
		cfg.Secure(),
	)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	authHandler.Mount(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router, infra.Close, nil
}
