package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"google.golang.org/api/option"

	"rentease/internal/config"
	"rentease/internal/repositories"
	"rentease/internal/services"
	"rentease/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.LoadConfig()
	if err != nil {
		errorLog.Fatal(err)
	}

	addr := flag.String("addr", cfg.Server.Address, "HTTP network address")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := cfg.Database.Driver
	if driver == "postgres" {
		driver = "pgx"
	}
	db, err := openDB(driver, cfg.Database.URL, cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		errorLog.Fatalf("redis ping %s: %v", cfg.Redis.Addr, err)
	}
	defer rdb.Close()

	gateway, err := services.NewPayMongoService(services.PayMongoConfig{
		SecretKey: cfg.PayMongo.SecretKey,
		BaseURL:   cfg.PayMongo.BaseURL,
		Currency:  cfg.PayMongo.Currency,
		Client:    &http.Client{Timeout: cfg.PayMongo.Timeout},
		Logger:    slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "paymongo"),
	})
	if err != nil {
		errorLog.Fatal(err)
	}

	deps := dependencies{
		db:      db,
		dialect: repositories.DialectFor(driver),
		rdb:     rdb,
		gateway: gateway,
	}

	if cfg.Storage.Bucket != "" {
		storage, err := utils.NewS3Storage(utils.StorageConfig{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			errorLog.Fatal(err)
		}
		deps.storage = storage
	} else {
		infoLog.Println("S3 bucket not configured, room image uploads are disabled")
	}

	if cfg.Firebase.CredentialsFile != "" {
		fbApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		if err != nil {
			errorLog.Fatalf("firebase init: %v", err)
		}
		fcm, err := fbApp.Messaging(ctx)
		if err != nil {
			errorLog.Fatalf("firebase messaging: %v", err)
		}
		deps.messaging = fcm
	} else {
		infoLog.Println("Firebase credentials not configured, push notifications are disabled")
	}

	app, err := initializeApp(cfg, deps, errorLog, infoLog)
	if err != nil {
		errorLog.Fatal(err)
	}
	go app.wsManager.Run(ctx)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     errorLog,
		Handler:      addSecurityHeaders(c.Handler(app.routes())),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errorLog.Printf("shutdown: %v", err)
		}
	}()

	infoLog.Printf("Starting server on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errorLog.Fatal(err)
	}
	infoLog.Println("Server stopped")
}
