package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mythweaver-server/shared/authutils"
	"mythweaver-server/shared/database"
	"mythweaver-server/websocket-service/internal/config"
	"mythweaver-server/websocket-service/internal/handler"
	"mythweaver-server/websocket-service/internal/messaging"
	"mythweaver-server/websocket-service/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
)

func main() {
	// Загружаем .env файл (если есть) для локальной разработки
	_ = godotenv.Load()

	log.Println("Запуск WebSocket сервиса...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zlog = zlog.Level(level)
	}

	// Подключаемся к PostgreSQL (проверки авторизации канала)
	pool, err := connectPostgres(cfg.Postgres)
	if err != nil {
		log.Fatalf("Не удалось подключиться к PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("Успешное подключение к PostgreSQL")

	// Подключаемся к Redis (источник событий сессий)
	redisClient, err := connectRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Не удалось подключиться к Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Успешное подключение к Redis")

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, nil)
	if err != nil {
		log.Fatalf("Не удалось создать JWT верификатор: %v", err)
	}

	// Репозитории здесь только читают, zap-логгер им не нужен
	repoLogger := zap.NewNop()
	sessionRepo := database.NewPgSessionRepository(pool, repoLogger)
	membershipRepo := database.NewPgWorldMembershipRepository(pool, repoLogger)

	authorizer := service.NewChannelAuthorizer(verifier, sessionRepo, membershipRepo, zlog)

	// Инициализация менеджера соединений
	connManager := handler.NewConnectionManager()

	// Инициализация и запуск консьюмера событий сессий
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	consumer := messaging.NewConsumer(redisClient, connManager)
	go func() {
		if err := consumer.StartConsuming(consumerCtx); err != nil {
			log.Printf("Ошибка при работе консьюмера Redis: %v", err)
		}
	}()
	log.Println("Консьюмер событий сессий запущен")

	wsHandler := handler.NewWebSocketHandler(connManager, authorizer, cfg.GetAllowedOrigins(), zlog)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/sessions/{session_id}", wsHandler.ServeWS)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("WebSocket сервер слушает на порту %s", cfg.Server.Port)

	// Запуск сервера в горутине
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	// Ожидание сигнала завершения для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Получен сигнал завершения, начинаем graceful shutdown...")

	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Ошибка при graceful shutdown: %v", err)
	}

	log.Println("WebSocket сервис успешно остановлен")
}

// connectPostgres пытается подключиться к PostgreSQL с несколькими попытками.
func connectPostgres(cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	dbConfig := database.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.MaxConns,
	}

	var pool *pgxpool.Pool
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = database.NewPool(context.Background(), dbConfig, zap.NewNop())
		if err == nil {
			return pool, nil
		}
		log.Printf("Не удалось подключиться к PostgreSQL (попытка %d/%d): %v. Повтор через %v...", i+1, maxRetries, err, retryDelay)
		time.Sleep(retryDelay)
	}
	return nil, err
}

// connectRedis пытается подключиться к Redis с несколькими попытками.
func connectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return client, nil
		}
		log.Printf("Не удалось подключиться к Redis (попытка %d/%d): %v. Повтор через %v...", i+1, maxRetries, err, retryDelay)
		time.Sleep(retryDelay)
	}
	return nil, err
}
