package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/config"
	"github.com/go-while/go-yelpcamp/internal/database"
)

// WebServer represents the web server
type WebServer struct {
	DB         *database.Database
	Router     *gin.Engine
	Config     *config.WebConfig
	Metrics    *Metrics
	StartTime  time.Time
	log        *zap.Logger
	templates  map[string]*template.Template
	flashes    *FlashStore
	validate   *validator.Validate
	sessionTTL time.Duration
	httpServer *http.Server
}

// NewServer creates a new web server instance
func NewServer(db *database.Database, cfg *config.MainConfig, logger *zap.Logger) (*WebServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gin.Mode() != gin.TestMode {
		if cfg.Web.Debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	templates, err := loadTemplates(EmbeddedTemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Web.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	flashes := NewFlashStore()
	web := cfg.Web
	server := &WebServer{
		DB:         db,
		Router:     router,
		Config:     &web,
		Metrics:    NewMetrics(flashes),
		log:        logger.Named("web"),
		templates:  templates,
		flashes:    flashes,
		validate:   newValidator(),
		sessionTTL: cfg.Session.TTL,
		StartTime:  time.Now(),
	}
	server.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Web.ListenPort),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if cfg.Web.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}

	router.Use(
		RequestIDMiddleware(),
		ginzap.Ginzap(server.log, time.RFC3339, true),
		ginzap.RecoveryWithZap(server.log, true),
		secure.New(secureConfig),
		server.Metrics.Middleware(),
		server.SessionMiddleware(),
		server.errorHandler(),
	)

	server.setupRoutes()
	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	s.Router.GET("/static/*filepath", EmbeddedStaticHandler("/static"))
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.Router.GET("/metrics", s.Metrics.Handler())

	s.Router.GET("/", wrap(s.homePage))

	// Authentication routes
	s.Router.GET("/register", wrap(s.registerPage))
	s.Router.POST("/register", wrap(s.registerSubmit))
	s.Router.GET("/login", wrap(s.loginPage))
	s.Router.POST("/login", wrap(s.loginSubmit))
	s.Router.GET("/logout", wrap(s.logout))

	campgrounds := s.Router.Group("/campgrounds")
	{
		campgrounds.GET("", wrap(s.campgroundsIndex))
		campgrounds.GET("/new", s.RequireLogin(), wrap(s.campgroundNew))
		campgrounds.POST("", s.RequireLogin(), s.ValidateCampground(), wrap(s.campgroundCreate))
		campgrounds.GET("/:id", wrap(s.campgroundShow))
		campgrounds.GET("/:id/edit", s.RequireLogin(), s.RequireCampgroundAuthor(), wrap(s.campgroundEdit))
		campgrounds.PUT("/:id", s.RequireLogin(), s.RequireCampgroundAuthor(), s.ValidateCampground(), wrap(s.campgroundUpdate))
		campgrounds.DELETE("/:id", s.RequireLogin(), s.RequireCampgroundAuthor(), wrap(s.campgroundDelete))

		campgrounds.POST("/:id/reviews", s.RequireLogin(), s.ValidateReview(), wrap(s.reviewCreate))
		campgrounds.DELETE("/:id/reviews/:reviewId", s.RequireLogin(), s.RequireReviewAuthor(), wrap(s.reviewDelete))
	}

	s.Router.NoRoute(wrap(s.notFoundHandler))
}

// Handler returns the router behind the _method override, which has to
// rewrite the method before gin picks a route
func (s *WebServer) Handler() http.Handler {
	return MethodOverride(s.Router)
}

// MethodOverride lets HTML forms issue PUT, PATCH and DELETE by posting a
// _method field or query parameter
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.URL.Query().Get("_method")
			if method == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				method = r.PostFormValue("_method")
			}
			switch m := strings.ToUpper(method); m {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the web server with SSL support if configured.
// It returns nil after Shutdown.
func (s *WebServer) Start() error {
	addr := s.httpServer.Addr

	var err error
	if s.Config.SSL {
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		s.log.Info("Starting HTTPS server", zap.String("addr", addr))
		err = s.httpServer.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
	} else {
		s.log.Info("Starting HTTP server", zap.String("addr", addr))
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for active requests
func (s *WebServer) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.log.Info("Web server stopped", zap.Duration("uptime", time.Since(s.StartTime).Round(time.Second)), zap.Error(err))
	return err
}
