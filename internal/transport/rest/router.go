package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"manara/internal/service"
	"manara/internal/transport/rest/handler"
	"manara/internal/transport/rest/middleware"
	"manara/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService        *service.AuthService
	ChallengeService   *service.ChallengeService
	QuestionService    *service.QuestionService
	LeaderboardService *service.LeaderboardService
	ContentService     *service.ContentService
	DashboardService   *service.DashboardService
	WSHub              *ws.Hub

	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	challengeHandler := handler.NewChallengeHandler(c.ChallengeService)
	questionHandler := handler.NewQuestionHandler(c.QuestionService)
	leaderboardHandler := handler.NewLeaderboardHandler(c.LeaderboardService)
	contentHandler := handler.NewContentHandler(c.ContentService)
	dashboardHandler := handler.NewDashboardHandler(c.DashboardService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowedOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	v1.HandleFunc("/leaderboard", leaderboardHandler.Top).Methods("GET", "OPTIONS")
	v1.HandleFunc("/lectures", contentHandler.ListLectures).Methods("GET", "OPTIONS")
	v1.HandleFunc("/news", contentHandler.ListNews).Methods("GET", "OPTIONS")
	v1.HandleFunc("/resources", contentHandler.ListResources).Methods("GET", "OPTIONS")

	// WebSocket routes (session feed carries the token in a query param)
	v1.HandleFunc("/ws/leaderboard", wsHandler.LeaderboardWS).Methods("GET")
	v1.HandleFunc("/ws/session", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/challenges/session/start", challengeHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/challenges/session", challengeHandler.Current).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/challenges/session/answer", challengeHandler.Answer).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/challenges/session/interrupt", challengeHandler.Interrupt).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/challenges/session/next", challengeHandler.Next).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/challenges/session/prev", challengeHandler.Prev).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/challenges/session/end", challengeHandler.End).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/leaderboard/rank", leaderboardHandler.Rank).Methods("GET", "OPTIONS")

	// Staff routes (admin or owner)
	staffRoutes := v1.NewRoute().Subrouter()
	staffRoutes.Use(authMW.RequireStaff)

	staffRoutes.HandleFunc("/admin/questions", questionHandler.List).Methods("GET", "OPTIONS")
	staffRoutes.HandleFunc("/admin/questions", questionHandler.Create).Methods("POST", "OPTIONS")
	staffRoutes.HandleFunc("/admin/questions/{id}", questionHandler.Update).Methods("PUT", "OPTIONS")
	staffRoutes.HandleFunc("/admin/questions/{id}", questionHandler.Delete).Methods("DELETE", "OPTIONS")
	staffRoutes.HandleFunc("/admin/lectures", contentHandler.CreateLecture).Methods("POST", "OPTIONS")
	staffRoutes.HandleFunc("/admin/lectures/{id}", contentHandler.DeleteLecture).Methods("DELETE", "OPTIONS")
	staffRoutes.HandleFunc("/admin/news", contentHandler.CreateNews).Methods("POST", "OPTIONS")
	staffRoutes.HandleFunc("/admin/news/{id}", contentHandler.DeleteNews).Methods("DELETE", "OPTIONS")
	staffRoutes.HandleFunc("/admin/resources", contentHandler.CreateResource).Methods("POST", "OPTIONS")
	staffRoutes.HandleFunc("/admin/resources/{id}", contentHandler.DeleteResource).Methods("DELETE", "OPTIONS")
	staffRoutes.HandleFunc("/admin/dashboard", dashboardHandler.Stats).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
