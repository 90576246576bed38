package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"manara/internal/cache"
	"manara/internal/config"
	"manara/internal/repository"
	"manara/internal/service"
	"manara/internal/transport/rest"
	"manara/internal/transport/ws"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return err
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.Mongo.Database)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return err
	}
	log.Println("Connected to Redis")

	// WebSocket hub
	wsHub := ws.NewHub()

	// Repositories
	userRepo := repository.NewUserRepo(db)
	questionRepo := repository.NewQuestionRepo(db)
	progressRepo := repository.NewProgressRepo(db)
	lectureRepo := repository.NewLectureRepo(db)
	newsRepo := repository.NewNewsRepo(db)
	resourceRepo := repository.NewResourceRepo(db)

	// Caches
	leaderboard := cache.NewLeaderboardCache(rdb)
	sessionCache := cache.NewSessionCache(rdb, cfg.SessionTTL(24*time.Hour))
	statsCache := cache.NewStatsCache(rdb)

	// Services
	writer := service.NewProgressWriter(progressRepo, cfg.Writer.Buffer)
	authSvc := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	leaderboardSvc := service.NewLeaderboardService(leaderboard, progressRepo, userRepo)
	challengeSvc := service.NewChallengeService(questionRepo, progressRepo, sessionCache, statsCache, writer, leaderboardSvc)
	questionSvc := service.NewQuestionService(questionRepo)
	contentSvc := service.NewContentService(lectureRepo, newsRepo, resourceRepo)
	dashboardSvc := service.NewDashboardService(statsCache, questionRepo, progressRepo)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	challengeSvc.SetBroadcaster(wsHub)
	leaderboardSvc.SetBroadcaster(wsHub)

	// Reseed the ranking in case Redis came up empty
	if err := leaderboardSvc.Rebuild(ctx); err != nil {
		log.Printf("Warning: leaderboard rebuild failed: %v", err)
	}

	container := &rest.Container{
		AuthService:        authSvc,
		ChallengeService:   challengeSvc,
		QuestionService:    questionSvc,
		LeaderboardService: leaderboardSvc,
		ContentService:     contentSvc,
		DashboardService:   dashboardSvc,
		WSHub:              wsHub,
		CORSAllowedOrigins: cfg.Server.AllowedOrigins,
	}

	srv := &http.Server{
		Addr:    ":" + finalPort,
		Handler: rest.NewRouter(container),
	}

	go func() {
		log.Printf("Server starting on :%s", finalPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("Shutting down server...")
	case <-ctx.Done():
		log.Println("Context canceled, shutting down server...")
	}

	// Stop intake first so queued score writes drain before exit.
	challengeSvc.Shutdown()
	writer.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
