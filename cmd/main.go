package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Quokkas/config"
	"github.com/lshigami/Quokkas/database"
	_ "github.com/lshigami/Quokkas/docs" // Swagger docs - auto-generated
	adminctrl "github.com/lshigami/Quokkas/internal/controller/admin"
	userctrl "github.com/lshigami/Quokkas/internal/controller/user"
	"github.com/lshigami/Quokkas/internal/logger"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/repository"
	"github.com/lshigami/Quokkas/internal/service"
	"github.com/lshigami/Quokkas/internal/session"
	"github.com/lshigami/Quokkas/internal/storage"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Club Poll Engine API
// @version 1.0
// @description Poll/survey definition, response collection, and analytics for club management.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			NewSessionManager,
			storage.NewSupabaseStore,
		),

		// Repositories
		fx.Provide(
			repository.NewPollRepository,
			repository.NewResponseRepository,
		),

		// Services
		fx.Provide(
			service.NewAdminPollService,
			service.NewPollService,
			service.NewSubmissionService,
			service.NewResultsService,
		),

		// Controllers
		fx.Provide(
			adminctrl.NewAdminPollController,
			userctrl.NewPollController,
			userctrl.NewSessionController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(SchedulePublishSweep),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.DebugMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func NewSessionManager(cfg *config.Config) *session.Manager {
	return session.NewManager(cfg.Session.TabSwitchLimit)
}

// RegisterRoutesAndStartServer wires the API routes and manages the HTTP
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminPollCtrl *adminctrl.AdminPollController,
	pollCtrl *userctrl.PollController,
	sessionCtrl *userctrl.SessionController,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		pollsAdminGroup := adminAPIGroup.Group("/polls")
		pollsAdminGroup.POST("", adminPollCtrl.CreatePoll)
		pollsAdminGroup.PUT("/:poll_id", adminPollCtrl.UpdatePoll)
		pollsAdminGroup.POST("/:poll_id/publish", adminPollCtrl.PublishPoll)
		pollsAdminGroup.POST("/:poll_id/close", adminPollCtrl.ClosePoll)
		pollsAdminGroup.POST("/:poll_id/reopen", adminPollCtrl.ReopenPoll)
		pollsAdminGroup.GET("/:poll_id/results", adminPollCtrl.PollResults)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/polls", pollCtrl.ListPolls)
		userAPIGroup.GET("/polls/:poll_id", pollCtrl.GetPoll)
		userAPIGroup.GET("/polls/:poll_id/results", pollCtrl.PollResults)

		userAPIGroup.POST("/polls/:poll_id/sessions", sessionCtrl.StartSession)
		userAPIGroup.PUT("/polls/:poll_id/responses/:response_id", sessionCtrl.AmendResponse)
		userAPIGroup.GET("/sessions/:session_id", sessionCtrl.GetSession)
		userAPIGroup.GET("/sessions/:session_id/sections/:index", sessionCtrl.GetSection)
		userAPIGroup.PUT("/sessions/:session_id/answers/:question_id", sessionCtrl.SetAnswer)
		userAPIGroup.POST("/sessions/:session_id/answers/:question_id/file", sessionCtrl.UploadAnswerFile)
		userAPIGroup.POST("/sessions/:session_id/next", sessionCtrl.Next)
		userAPIGroup.POST("/sessions/:session_id/previous", sessionCtrl.Previous)
		userAPIGroup.POST("/sessions/:session_id/submit", sessionCtrl.Submit)
		userAPIGroup.POST("/sessions/:session_id/cancel", sessionCtrl.Cancel)
		userAPIGroup.POST("/sessions/:session_id/tab-switch", sessionCtrl.TabSwitch)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Poll engine server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// SchedulePublishSweep opens scheduled drafts and closes expired polls once
// a minute.
func SchedulePublishSweep(lc fx.Lifecycle, adminPollService service.AdminPollService) {
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ticker := time.NewTicker(time.Minute)
			go func() {
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case now := <-ticker.C:
						published, err := adminPollService.PublishScheduled(now)
						if err != nil {
							log.Error().Err(err).Msg("Scheduled publish sweep failed")
						}
						for _, id := range published {
							log.Info().Uint("pollID", id).Msg("Scheduled poll published")
						}

						closed, err := adminPollService.CloseExpired(now)
						if err != nil {
							log.Error().Err(err).Msg("Deadline close sweep failed")
						}
						for _, id := range closed {
							log.Info().Uint("pollID", id).Msg("Poll closed at deadline")
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Poll{},
		&model.Section{},
		&model.Question{},
		&model.Response{},
		&model.Answer{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
