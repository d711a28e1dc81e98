package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/cancel_booking"
	completeSessionHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/complete_session"
	createBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/create_booking"
	deliverBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/deliver_booking"
	editServicesHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/edit_services"
	finalizeDraftHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/finalize_draft"
	findRouteOptimizationsHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/find_route_optimizations"
	getAgentBookingsHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_agent_bookings"
	getAvailableSlotsHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_booking"
	getClientBookingsHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_client_bookings"
	getEligibleAgentsHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_eligible_agents_for_swap"
	getWalletHistoryHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/get_wallet_history"
	markPayoutPaidHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/mark_payout_paid"
	reassignBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/reassign_booking"
	rescheduleBookingHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/reschedule_booking"
	updateStatusHandler "github.com/m04kA/SMC-DispatchService/internal/api/handlers/update_status"
	"github.com/m04kA/SMC-DispatchService/internal/api/middleware"
	"github.com/m04kA/SMC-DispatchService/internal/config"
	agentRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/agent"
	bookingRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/booking"
	clientRepo "github.com/m04kA/SMC-DispatchService/internal/infra/storage/client"
	catalogServiceClient "github.com/m04kA/SMC-DispatchService/internal/integrations/catalogservice"
	couponServiceClient "github.com/m04kA/SMC-DispatchService/internal/integrations/couponservice"
	notifyServiceClient "github.com/m04kA/SMC-DispatchService/internal/integrations/notifyservice"
	bookingsService "github.com/m04kA/SMC-DispatchService/internal/service/bookings"
	optimizerService "github.com/m04kA/SMC-DispatchService/internal/service/optimizer"
	walletService "github.com/m04kA/SMC-DispatchService/internal/service/wallet"
	createBookingUC "github.com/m04kA/SMC-DispatchService/internal/usecase/create_booking"
	finalizeDraftUC "github.com/m04kA/SMC-DispatchService/internal/usecase/finalize_draft"
	getAvailableSlotsUC "github.com/m04kA/SMC-DispatchService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-DispatchService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DispatchService/pkg/logger"
	"github.com/m04kA/SMC-DispatchService/pkg/metrics"
	"github.com/m04kA/SMC-DispatchService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-DispatchService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-DispatchService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	couponClient := couponServiceClient.NewClient(
		cfg.CouponService.URL,
		time.Duration(cfg.CouponService.Timeout)*time.Second,
		log,
	)
	notifyClient := notifyServiceClient.NewClient(
		cfg.NotifyService.URL,
		time.Duration(cfg.NotifyService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (CatalogService=%s, CouponService=%s, NotifyService=%s)",
		cfg.CatalogService.URL, cfg.CouponService.URL, cfg.NotifyService.URL)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository *bookingRepo.Repository
		agentRepository   *agentRepo.Repository
		clientRepository  *clientRepo.Repository
	)

	// Интерфейс для transaction manager (используется в сервисах и usecases)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
		DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		agentRepository = agentRepo.NewRepository(wrappedDB)
		clientRepository = clientRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		agentRepository = agentRepo.NewRepository(db)
		clientRepository = clientRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	walletSvc := walletService.NewService(
		clientRepository,
		&walletService.RealTimeProvider{},
		log,
	)

	bookingSvc := bookingsService.NewService(
		bookingRepository,
		agentRepository,
		clientRepository,
		walletSvc,
		catalogClient,
		notifyClient,
		txMgr,
		&bookingsService.RealTimeProvider{},
		bookingsService.Config{
			RevenueShare:         cfg.Engine.DefaultRevenueShare,
			NegativeBalanceFloor: cfg.Engine.NegativeBalanceFloor,
		},
		log,
	)

	optimizerSvc := optimizerService.NewService(
		bookingRepository,
		agentRepository,
		clientRepository,
		txMgr,
		cfg.Engine.MinSwapSavingKm,
		log,
	)

	// Инициализируем use cases
	engineCfg := createBookingUC.Config{
		FlashBufferMinutes:   cfg.Engine.FlashBufferMinutes,
		LoadScoreWeight:      cfg.Engine.LoadScoreBookingWeight,
		RevenueShare:         cfg.Engine.DefaultRevenueShare,
		NegativeBalanceFloor: cfg.Engine.NegativeBalanceFloor,
	}

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		agentRepository,
		clientRepository,
		catalogClient,
		couponClient,
		walletSvc,
		notifyClient,
		txMgr,
		engineCfg,
		log,
	)

	finalizeDraftUseCase := finalizeDraftUC.NewUseCase(
		bookingRepository,
		agentRepository,
		clientRepository,
		catalogClient,
		couponClient,
		walletSvc,
		notifyClient,
		txMgr,
		finalizeDraftUC.Config{
			FlashBufferMinutes:   cfg.Engine.FlashBufferMinutes,
			LoadScoreWeight:      cfg.Engine.LoadScoreBookingWeight,
			RevenueShare:         cfg.Engine.DefaultRevenueShare,
			NegativeBalanceFloor: cfg.Engine.NegativeBalanceFloor,
		},
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		agentRepository,
		clientRepository,
		catalogClient,
		getAvailableSlotsUC.Config{
			MinNoticeMinutes: cfg.Engine.FlashBufferMinutes,
		},
		log,
	)

	// Подключаем бизнес-метрики (назначения, кошелёк, события, своп-пары)
	if metricsCollector != nil {
		walletSvc.WithMetrics(metricsCollector)
		bookingSvc.WithMetrics(metricsCollector)
		optimizerSvc.WithMetrics(metricsCollector)
		createBookingUseCase.WithMetrics(metricsCollector)
		finalizeDraftUseCase.WithMetrics(metricsCollector)
	}

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	finalizeDraft := finalizeDraftHandler.NewHandler(finalizeDraftUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(bookingSvc, log)
	reassignBooking := reassignBookingHandler.NewHandler(bookingSvc, log)
	editServices := editServicesHandler.NewHandler(bookingSvc, log)
	updateStatus := updateStatusHandler.NewHandler(bookingSvc, log)
	completeSession := completeSessionHandler.NewHandler(bookingSvc, log)
	deliverBooking := deliverBookingHandler.NewHandler(bookingSvc, log)
	markPayoutPaid := markPayoutPaidHandler.NewHandler(bookingSvc, log)
	getClientBookings := getClientBookingsHandler.NewHandler(bookingSvc, log)
	getAgentBookings := getAgentBookingsHandler.NewHandler(bookingSvc, log)
	findRouteOptimizations := findRouteOptimizationsHandler.NewHandler(optimizerSvc, log)
	getEligibleAgents := getEligibleAgentsHandler.NewHandler(optimizerSvc, log)
	getWalletHistory := getWalletHistoryHandler.NewHandler(walletSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Получение доступных слотов по агентам
	api.HandleFunc("/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования (scheduled, flash или draft)
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Финализация черновика
	protected.HandleFunc("/bookings/{bookingId}/finalize", finalizeDraft.Handle).Methods(http.MethodPost)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// Перенос на другие дату и время
	protected.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPatch)

	// Ручное переназначение агента
	protected.HandleFunc("/bookings/{bookingId}/reassign", reassignBooking.Handle).Methods(http.MethodPatch)

	// Изменение состава услуг
	protected.HandleFunc("/bookings/{bookingId}/services", editServices.Handle).Methods(http.MethodPatch)

	// Переход по статусной машине
	protected.HandleFunc("/bookings/{bookingId}/status", updateStatus.Handle).Methods(http.MethodPatch)

	// Отметка о проведённой съёмке
	protected.HandleFunc("/bookings/{bookingId}/complete", completeSession.Handle).Methods(http.MethodPatch)

	// Сдача материала
	protected.HandleFunc("/bookings/{bookingId}/deliver", deliverBooking.Handle).Methods(http.MethodPatch)

	// Отметка о выплате агенту
	protected.HandleFunc("/bookings/{bookingId}/payout-paid", markPayoutPaid.Handle).Methods(http.MethodPatch)

	// --- Списки ---
	// История бронирований клиента
	protected.HandleFunc("/clients/{clientId}/bookings", getClientBookings.Handle).Methods(http.MethodGet)

	// Бронирования агента
	protected.HandleFunc("/agents/{agentId}/bookings", getAgentBookings.Handle).Methods(http.MethodGet)

	// --- Оптимизация маршрутов ---
	// Рекомендации по обмену агентами на дату
	protected.HandleFunc("/optimizations", findRouteOptimizations.Handle).Methods(http.MethodGet)

	// Кандидаты на обмен для бронирования
	protected.HandleFunc("/bookings/{bookingId}/eligible-agents", getEligibleAgents.Handle).Methods(http.MethodGet)

	// --- Кошелёк ---
	// История операций по кошельку клиента
	protected.HandleFunc("/clients/{clientId}/wallet/transactions", getWalletHistory.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
