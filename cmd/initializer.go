package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"rentease/internal/config"
	"rentease/internal/handlers"
	"rentease/internal/models"
	"rentease/internal/repositories"
	"rentease/internal/services"
	"rentease/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger

	tokens    *utils.Manager
	wsManager *WebSocketManager

	ownerAuthHandler       *handlers.AuthHandler
	renterAuthHandler      *handlers.AuthHandler
	roomHandler            *handlers.RoomHandler
	rentedUnitHandler      *handlers.RentedUnitHandler
	paymentReminderHandler *handlers.PaymentReminderHandler
	paymentHandler         *handlers.PaymentHandler
	deviceHandler          *handlers.DeviceHandler
}

// dependencies are the external clients built in main.
type dependencies struct {
	db        *sql.DB
	dialect   repositories.Dialect
	rdb       *redis.Client
	storage   services.BlobStorage
	gateway   services.PaymentGateway
	messaging services.MessageSender
}

func initializeApp(cfg config.Config, deps dependencies, errorLog, infoLog *log.Logger) (*application, error) {
	logger := services.StdLogger{Info: infoLog, Error: errorLog}

	tokens, err := utils.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	// Repos
	store := &repositories.Store{DB: deps.db, Dialect: deps.dialect}
	ownerRepo := repositories.NewOwnerRepository(deps.db, deps.dialect)
	renterRepo := repositories.NewRenterRepository(deps.db, deps.dialect)
	roomRepo := &repositories.RoomRepository{DB: deps.db, Dialect: deps.dialect}
	rentedUnitRepo := &repositories.RentedUnitRepository{DB: deps.db, Dialect: deps.dialect}
	reminderRepo := &repositories.PaymentReminderRepository{DB: deps.db, Dialect: deps.dialect}
	paymentRepo := &repositories.PaymentRepository{DB: deps.db, Dialect: deps.dialect}
	deviceTokenRepo := &repositories.DeviceTokenRepository{DB: deps.db, Dialect: deps.dialect}
	sessionRepo := &repositories.SessionRepository{RDB: deps.rdb}

	wsManager := NewWebSocketManager(infoLog, errorLog)

	// Services
	pushService := &services.PushService{Client: deps.messaging, Tokens: deviceTokenRepo, Logger: logger}
	notifier := services.Fanout{wsManager, pushService}

	authService := &services.AuthService{
		Owners:     ownerRepo,
		Renters:    renterRepo,
		Sessions:   sessionRepo,
		Tokens:     tokens,
		RefreshTTL: cfg.Auth.RefreshTTL,
		Logger:     logger,
	}
	roomService := &services.RoomService{Tx: store, Rooms: roomRepo, Storage: deps.storage, Logger: logger}
	rentedUnitService := &services.RentedUnitService{
		Tx:        store,
		Rooms:     roomRepo,
		Units:     rentedUnitRepo,
		Reminders: reminderRepo,
		Gateway:   deps.gateway,
		Notifier:  notifier,
		Logger:    logger,
	}
	reminderService := &services.PaymentReminderService{
		Tx:        store,
		Reminders: reminderRepo,
		Rooms:     roomRepo,
		Units:     rentedUnitRepo,
		Notifier:  notifier,
		Logger:    logger,
	}
	paymentService := &services.PaymentService{
		Gateway:       deps.gateway,
		Payments:      paymentRepo,
		Rooms:         roomRepo,
		ReturnURL:     cfg.PayMongo.ReturnURL,
		WebhookSecret: cfg.PayMongo.WebhookSecret,
		Logger:        logger,
		Now:           time.Now,
	}

	return &application{
		errorLog:  errorLog,
		infoLog:   infoLog,
		tokens:    tokens,
		wsManager: wsManager,

		ownerAuthHandler:       handlers.NewAuthHandler(authService, models.PrincipalOwner),
		renterAuthHandler:      handlers.NewAuthHandler(authService, models.PrincipalRenter),
		roomHandler:            handlers.NewRoomHandler(roomService),
		rentedUnitHandler:      handlers.NewRentedUnitHandler(rentedUnitService),
		paymentReminderHandler: handlers.NewPaymentReminderHandler(reminderService),
		paymentHandler:         handlers.NewPaymentHandler(paymentService),
		deviceHandler:          handlers.NewDeviceHandler(pushService),
	}, nil
}

func openDB(driver, dsn string, maxIdle, maxOpen int) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		_ = db.Close()
		return nil, err
	}
	db.SetMaxIdleConns(maxIdle)
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	log.Println("Successfully connected to database")
	return db, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		next.ServeHTTP(w, r)
	})
}
