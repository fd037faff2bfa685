package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/codeclash/backend/archive"
	"github.com/codeclash/backend/conf"
	"github.com/codeclash/backend/feed"
	"github.com/codeclash/backend/http"
	"github.com/codeclash/backend/judgequeue"
	"github.com/codeclash/backend/judgesrvc"
	"github.com/codeclash/backend/matchsrvc"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		panic("Error loading .env file")
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey == "" {
		slog.Error("JWT_KEY is not set")
		os.Exit(1)
	}
	evaluatorUrl := os.Getenv("EVALUATOR_URL")
	if evaluatorUrl == "" {
		slog.Error("EVALUATOR_URL is not set")
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), conf.GetPgConnStrFromEnv())
	if err != nil {
		slog.Error("failed to create pg connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	workerConf, err := conf.ReadWorkerConf("worker.toml")
	if err != nil {
		slog.Error("failed to read worker config", "error", err)
		os.Exit(1)
	}

	repo := matchsrvc.NewPgMatchRepo(pool)
	finalizer := matchsrvc.NewFinalizer(repo)
	bus := feed.NewBus()

	sqsClient := judgequeue.GetSqsClientFromEnv()
	sqsLogger := slog.Default().With("module", "queue")
	queue := judgequeue.NewSqsJobQueue(sqsLogger, sqsClient, judgequeue.GetJudgeSqsUrlFromEnv())
	dlq := judgequeue.NewSqsDeadLetter(sqsLogger, sqsClient, judgequeue.GetDeadLetterSqsUrlFromEnv())

	evaluator := judgesrvc.NewHttpEvaluator(evaluatorUrl)

	judgesrvc.RegisterMetrics()
	worker := judgesrvc.NewWorker(queue, dlq, repo, evaluator, finalizer, bus,
		judgesrvc.WorkerConfig{
			Concurrency: workerConf.Concurrency,
			MaxAttempts: workerConf.MaxAttempts,
			BackoffBase: workerConf.BackoffBase(),
		})
	worker.Start()
	defer worker.Close()

	s3Archive := archive.NewS3MatchArchive(
		slog.Default().With("module", "archive"),
		archive.GetS3ClientFromEnv(),
		archive.GetArchiveS3BucketFromEnv(),
	)
	archiver := archive.NewArchiver(repo, s3Archive, bus)
	archiver.Start()
	defer archiver.Close()

	srvc := judgesrvc.NewJudgeSrvc(repo, queue, bus)
	httpServer := http.NewHttpServer(srvc, []byte(jwtKey))

	go func() {
		address := ":8080"
		log.Printf("Starting server on %s", address)
		err := httpServer.Start(address)
		log.Printf("Server stopped with error: %v", err)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Printf("Shutting down")
}
