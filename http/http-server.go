package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeclash/backend/judgesrvc"
)

type HttpServer struct {
	judgeSrvc *judgesrvc.JudgeSrvc
	router    *chi.Mux
}

func NewHttpServer(
	judgeSrvc *judgesrvc.JudgeSrvc,
	jwtKey []byte,
) *HttpServer {
	router := chi.NewRouter()

	logger := httplog.NewLogger("codeclash", httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
	})

	router.Use(httplog.RequestLogger(logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))

	router.Use(getJwtAuthMiddleware(jwtKey))

	server := &HttpServer{
		judgeSrvc: judgeSrvc,
		router:    router,
	}

	server.routes()

	return server
}

func (httpserver *HttpServer) Start(address string) error {
	return http.ListenAndServe(address, httpserver.router)
}

func (httpserver *HttpServer) routes() {
	r := httpserver.router
	r.Post("/matches/{matchUuid}/submissions", httpserver.createSubmission)
	r.Get("/matches/{matchUuid}/judgment", httpserver.getJudgment)
	r.Get("/subm-updates", httpserver.listenToSubmUpdates)
	r.Handle("/metrics", promhttp.Handler())
}
