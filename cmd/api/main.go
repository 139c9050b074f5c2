package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	clientRepo := repository.NewClientRepository(pool)
	contractTypeRepo := repository.NewContractTypeRepository(pool)
	contractRepo := repository.NewContractRepository(pool)
	addendumRepo := repository.NewAddendumRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	draftRepo := repository.NewDraftRepository(redis.Client, cfg.Contract.DraftTTL())

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
	})
	orgService := service.NewStaffService(*cfg, service.OrgDependencies{
		DepartmentRepo: departmentRepo,
		TeamRepo:       teamRepo,
		StaffRepo:      staffRepo,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		MessageRepo:    messageRepo,
		AttachmentRepo: attachmentRepo,
		DepartmentRepo: departmentRepo,
		TeamRepo:       teamRepo,
		StaffRepo:      staffRepo,
		HistoryRepo:    historyRepo,
		Dispatcher:     dispatcher,
		SLA:            cfg.SLA,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  ticketRepo,
		StaffRepo:   staffRepo,
		TeamRepo:    teamRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
	})
	contractService := service.NewContractService(service.ContractDependencies{
		ContractRepo:     contractRepo,
		ContractTypeRepo: contractTypeRepo,
		ClientRepo:       clientRepo,
		Dispatcher:       dispatcher,
	})
	draftService := service.NewDraftService(service.DraftDependencies{
		DraftRepo:        draftRepo,
		ContractTypeRepo: contractTypeRepo,
		ContractService:  contractService,
	})
	addendumService := service.NewAddendumService(service.AddendumDependencies{
		ContractRepo: contractRepo,
		AddendumRepo: addendumRepo,
		Dispatcher:   dispatcher,
	})
	appointmentService := service.NewAppointmentService(service.AppointmentDependencies{
		AppointmentRepo: appointmentRepo,
		TicketRepo:      ticketRepo,
		ContractRepo:    contractRepo,
		StaffRepo:       staffRepo,
		Dispatcher:      dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	renewalWorker := worker.NewRenewalWorker(contractRepo, dispatcher, logger, cfg.Contract)
	renewalWorker.Start(ctx)
	defer renewalWorker.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, staffRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, orgService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService, assignmentService),
		Contracts:      handlers.NewContractsHandler(contractService, addendumService),
		ContractDrafts: handlers.NewContractDraftsHandler(draftService),
		Appointments:   handlers.NewAppointmentsHandler(appointmentService),
		Catalog:        handlers.NewCatalogHandler(contractService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
