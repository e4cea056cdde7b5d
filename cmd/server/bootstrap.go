package main

import (
	"github.com/hibiken/asynq"
	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/internal/handlers"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/internal/utils"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg          *config.Config
	mailQueue    services.MailQueue
	mailWorker   *asynq.Server
	auditCleanup *cron.Cron

	authHandler       *handlers.AuthHandler
	projectHandler    *handlers.ProjectHandler
	memberHandler     *handlers.MemberHandler
	taskHandler       *handlers.TaskHandler
	subtaskHandler    *handlers.SubtaskHandler
	noteHandler       *handlers.NoteHandler
	attachmentHandler *handlers.AttachmentHandler
	userHandler       *handlers.UserHandler
	auditLogHandler   *handlers.AuditLogHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitAuditLogger(db)
	auditCleanup := services.StartAuditCleanupScheduler(db)

	mailer := services.NewMailer(&cfg.SMTP)
	mailQueue := services.InitMailQueue(cfg, mailer)
	var mailWorker *asynq.Server
	if cfg.Redis.Enabled && mailQueue.IsAsync() {
		mailWorker = services.StartMailWorker(&cfg.Redis, mailer)
	}

	files, err := services.NewFileStore(&cfg.Uploads)
	if err != nil {
		logger.Fatalf("Failed to initialize file store: %v", err)
	}

	mutator := services.NewMutator(db, services.NewRetryPolicy(cfg.Retry))

	authService := services.NewAuthService(db, &cfg.JWT, &cfg.LDAP, mailQueue)
	if err := authService.EnsureDefaultAdmin(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create default admin user")
	}

	projectService := services.NewProjectService(db, mutator, files)
	membershipService := services.NewMembershipService(db, mutator, mailQueue)
	taskService := services.NewTaskService(db, mutator, files)
	subtaskService := services.NewSubtaskService(db)
	noteService := services.NewNoteService(db)
	attachmentService := services.NewAttachmentService(db, files)
	userService := services.NewUserService(db)
	auditLogService := services.NewAuditLogService(db)

	return &appServices{
		cfg:          cfg,
		mailQueue:    mailQueue,
		mailWorker:   mailWorker,
		auditCleanup: auditCleanup,

		authHandler:       handlers.NewAuthHandler(authService),
		projectHandler:    handlers.NewProjectHandler(projectService),
		memberHandler:     handlers.NewMemberHandler(membershipService),
		taskHandler:       handlers.NewTaskHandler(taskService),
		subtaskHandler:    handlers.NewSubtaskHandler(subtaskService),
		noteHandler:       handlers.NewNoteHandler(noteService),
		attachmentHandler: handlers.NewAttachmentHandler(attachmentService),
		userHandler:       handlers.NewUserHandler(userService),
		auditLogHandler:   handlers.NewAuditLogHandler(auditLogService),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	if s.auditCleanup != nil {
		s.auditCleanup.Stop()
	}
	if s.mailWorker != nil {
		s.mailWorker.Shutdown()
	}
	if s.mailQueue != nil {
		s.mailQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
