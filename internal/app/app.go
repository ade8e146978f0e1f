package app

import (
	"fmt"
	"net/http"

	"newsfeed/config"
	"newsfeed/internal/database"
	"newsfeed/internal/handler"
	"newsfeed/internal/logger"
	"newsfeed/internal/middleware"
	"newsfeed/internal/repository"
	"newsfeed/internal/rss"
	"newsfeed/internal/service"
	"newsfeed/pkg/datetime"
	"newsfeed/pkg/email"
	"newsfeed/pkg/ratelimit"
	"newsfeed/pkg/security"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

type Application struct {
	Router          *mux.Router
	Config          *config.Config
	DBManager       *database.Manager
	AuthHandler     *handler.AuthHandler
	NewsfeedHandler *handler.NewsfeedHandler
	SourceHandler   *handler.SourceHandler
	AuthMiddleware  *middleware.AuthMiddleware
	loginLimiter    *ratelimit.Limiter
}

func New(cfg *config.Config) (*Application, error) {
	dbManager, err := database.NewManager(database.Config{
		Driver:           cfg.DatabaseDriver,
		ConnectionString: cfg.DatabaseURL,
		Host:             cfg.DBHost,
		Port:             cfg.DBPort,
		User:             cfg.DBUser,
		Password:         cfg.DBPassword,
		DBName:           cfg.DBName,
		SQLitePath:       cfg.SQLitePath,
	})
	if err != nil {
		return nil, err
	}

	db := dbManager.GetDB()
	userRepository := repository.NewUserRepository(db)
	sourceRepository := repository.NewSourceRepository(db)
	itemRepository := repository.NewItemRepository(db)
	commentRepository := repository.NewCommentRepository(db)

	emailService, err := email.New(email.Options{
		ResendAPIKey: cfg.ResendAPIKey,
		SMTP: email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		},
	})
	if err != nil {
		logger.Warnf("Email service initialization failed, welcome emails disabled: %v", err)
		emailService = email.NoopService{}
	}

	fetcher := rss.NewFetcher(cfg.FetchTimeout, rss.WithUserAgent(cfg.UserAgent))
	poller := rss.NewPoller(sourceRepository, fetcher, rss.NewIngester(itemRepository))

	authService := service.NewAuthService(userRepository, emailService, security.NewPasswordHasher(bcrypt.DefaultCost), cfg.AppURL)
	newsfeedService := service.NewNewsfeedService(sourceRepository, itemRepository, commentRepository, poller)

	renderer, err := handler.NewRenderer(datetime.NewFormatter())
	if err != nil {
		dbManager.Close()
		return nil, err
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	limiter := ratelimit.NewLimiter()
	authMiddleware := middleware.NewAuthMiddleware(sessionStore)

	app := &Application{
		Router:          mux.NewRouter(),
		Config:          cfg,
		DBManager:       dbManager,
		AuthHandler:     handler.NewAuthHandler(authService, authMiddleware, renderer, limiter),
		NewsfeedHandler: handler.NewNewsfeedHandler(newsfeedService, renderer, cfg.AppURL),
		SourceHandler:   handler.NewSourceHandler(newsfeedService, renderer),
		AuthMiddleware:  authMiddleware,
		loginLimiter:    limiter,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

func (a *Application) setupMiddleware() {
	a.Router.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogger,
		chimw.Recoverer,
		chimw.Compress(5),
		middleware.SecurityHeaders(a.Config.IsProduction()),
	)

	if a.Config.IsProduction() {
		csrfOptions := []csrf.Option{
			csrf.Secure(true),
			csrf.HttpOnly(true),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
		}
		if a.Config.AppURL != "" {
			csrfOptions = append(csrfOptions, csrf.TrustedOrigins([]string{a.Config.AppURL}))
			logger.Infof("CSRF protection enabled, trusted origin: %s", a.Config.AppURL)
		}
		a.Router.Use(csrf.Protect([]byte(a.Config.CSRFSecret), csrfOptions...))
	} else {
		logger.Infof("CSRF protection disabled in %s mode", a.Config.Environment)
	}
}

func (a *Application) setupRoutes() {
	a.Router.HandleFunc("/", a.AuthHandler.Index).Methods("GET")
	a.Router.HandleFunc("/register/", a.AuthHandler.Register).Methods("GET", "POST")
	a.Router.HandleFunc("/login/", a.AuthHandler.Login).Methods("GET", "POST")
	a.Router.HandleFunc("/logout/", a.AuthHandler.Logout).Methods("GET", "POST")

	protected := a.Router.PathPrefix("/newsfeed").Subrouter()
	protected.Use(a.AuthMiddleware.RequireAuth)

	// Fixed paths must be registered ahead of /newsfeed/{filter}/.
	protected.HandleFunc("/sources/", a.SourceHandler.List).Methods("GET")
	protected.HandleFunc("/sources/add_source/", a.SourceHandler.Add).Methods("GET", "POST")
	protected.HandleFunc("/sources/delete_source/{id:[0-9]+}/", a.SourceHandler.Delete).Methods("GET", "POST")
	protected.HandleFunc("/sources/export", a.SourceHandler.Export).Methods("GET")
	protected.HandleFunc("/sources/import", a.SourceHandler.Import).Methods("POST")
	protected.HandleFunc("/favorites.rss", a.NewsfeedHandler.FavoritesRSS).Methods("GET")
	protected.HandleFunc("/comments/{id:[0-9]+}/", a.NewsfeedHandler.LikeComment).Methods("GET", "POST")
	protected.HandleFunc("/favorite/{id:[0-9]+}/", a.NewsfeedHandler.Favorite).Methods("GET", "POST")
	protected.HandleFunc("/{id:[0-9]+}/comments/", a.NewsfeedHandler.Comments).Methods("GET", "POST")
	protected.HandleFunc("/{filter}/", a.NewsfeedHandler.Newsfeed).Methods("GET")
}

func (a *Application) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.DBManager != nil {
		return a.DBManager.Close()
	}
	return nil
}

// Addr is the listen address for the configured port.
func (a *Application) Addr() string {
	return fmt.Sprintf(":%s", a.Config.AppPort)
}
