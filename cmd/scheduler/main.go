package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/library-engine/internal/config"
	"github.com/segyhp/library-engine/internal/repository"
	"github.com/segyhp/library-engine/internal/service"
	"github.com/segyhp/library-engine/pkg/logger"
	"github.com/segyhp/library-engine/pkg/utils"
)

const reportTimeout = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.LogFormat())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(2)

	loanService := service.NewLoanService(
		repository.NewUnitOfWork(db),
		repository.NewLoanRepository(db),
		nil,
		cfg.Library,
		zapLogger.Named("loans"),
	)

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.SchedulerLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if err := setupCronJobs(c, cfg, loanService, zapLogger); err != nil {
		zapLogger.Fatal("failed to schedule jobs", zap.Error(err))
	}

	c.Start()
	zapLogger.Info("scheduler started",
		zap.String("overdue_report_schedule", cfg.Scheduler.OverdueReportSchedule),
		zap.String("timezone", cfg.Scheduler.Timezone),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down scheduler")
	<-c.Stop().Done()
	zapLogger.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, loanService *service.LoanService, zapLogger *zap.Logger) error {
	_, err := c.AddFunc(cfg.Scheduler.OverdueReportSchedule, func() {
		runOverdueReport(loanService, zapLogger)
	})
	return err
}

func runOverdueReport(loanService *service.LoanService, zapLogger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	report, err := loanService.OverdueReport(ctx, time.Now())
	if err != nil {
		zapLogger.Error("overdue report failed", zap.Error(err))
		return
	}

	for _, overdue := range report.Loans {
		zapLogger.Info("overdue loan",
			zap.Int64("loan_id", overdue.Loan.ID),
			zap.Int64("user_id", overdue.Loan.UserID),
			zap.Int64("book_id", overdue.Loan.BookID),
			zap.Time("due_date", overdue.DueDate),
			zap.Int("days_overdue", overdue.DaysOverdue),
			zap.String("accrued_fine", utils.FormatMinorUnits(overdue.AccruedFine)),
		)
	}

	zapLogger.Info("overdue report complete",
		zap.Int("overdue_count", len(report.Loans)),
		zap.String("total_accrued", utils.FormatMinorUnits(report.TotalFine)),
	)
}
