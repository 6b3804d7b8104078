package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richardklafter/PriceYakalytics/internal/auth"
	authhandler "github.com/richardklafter/PriceYakalytics/internal/auth/handler"
	"github.com/richardklafter/PriceYakalytics/internal/auth/provider"
	"github.com/richardklafter/PriceYakalytics/internal/config"
	"github.com/richardklafter/PriceYakalytics/internal/middleware"
	"github.com/richardklafter/PriceYakalytics/internal/partner"
	"github.com/richardklafter/PriceYakalytics/internal/session"
	"github.com/richardklafter/PriceYakalytics/internal/tracking"
	trackinghandler "github.com/richardklafter/PriceYakalytics/internal/tracking/handler"
	"github.com/richardklafter/PriceYakalytics/internal/view"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	router, err := newRouter(ctx, cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	return router, infra.Close, nil
}

func newRouter(ctx context.Context, cfg config.Config, infra *Infra) (*gin.Engine, error) {

	// ----------------------------
	// Dependencies
	// ----------------------------

	codec, err := session.NewCodec(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	hosts := make([]provider.LoginProvider, 0, len(cfg.OAuth.LoginHosts))
	for _, h := range cfg.OAuth.LoginHosts {
		p, err := provider.NewHosted(h.Name, h.AuthURL, cfg.OAuth.ClientID, cfg.OAuth.Scopes)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, p)
	}

	registry, err := provider.NewRegistry(hosts...)
	if err != nil {
		return nil, err
	}

	manager, err := auth.NewManager(ctx, auth.ClientConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		IssuerURL:    cfg.OAuth.IssuerURL,
		TokenURL:     cfg.OAuth.TokenURL,
		UserInfoURL:  cfg.OAuth.UserInfoURL,
		SessionTTL:   cfg.SessionTTL,
		HTTPClient:   &http.Client{Timeout: cfg.HTTPTimeout},
	})
	if err != nil {
		return nil, err
	}

	partnerClient, err := partner.NewClient(cfg.PartnerAPIURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	authHandler := authhandler.NewHandler(registry, manager, codec, authhandler.Options{
		PublicBaseURL: cfg.PublicBaseURL,
		StateCheck:    cfg.StateCheck,
	})

	trackingHandler := trackinghandler.NewHandler(
		tracking.NewSynchronizer(partnerClient, cfg.SyncConcurrency),
		infra.Reports,
	)

	authMiddleware := middleware.NewAuthMiddleware(codec)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.SetHTMLTemplate(view.Templates())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected Routes
	// ----------------------------

	web := router.Group("/")
	web.Use(middleware.GinRequireSession(authMiddleware))

	trackingHandler.RegisterRoutes(web)

	return router, nil
}
