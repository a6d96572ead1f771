package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cptracker/internal/api"
	"cptracker/internal/app/scheduler"
	"cptracker/internal/app/service"
	"cptracker/internal/app/worker"
	"cptracker/internal/common/security"
	"cptracker/internal/domain/repository"
	"cptracker/internal/platform/codeforces"
	"cptracker/internal/platform/config"
	"cptracker/internal/platform/database"
	"cptracker/internal/platform/email"
	"cptracker/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	studentRepo := repository.NewPgStudentRepository(database.DB)
	contestRepo := repository.NewPgContestRepository(database.DB)
	problemRepo := repository.NewPgSolvedProblemRepository(database.DB)
	txRunner := repository.NewTxRunner(database.DB)

	// 6. Initialize Services
	cfClient := codeforces.NewClient()
	sender := newEmailSender()

	authService := service.NewAuthService(userRepo)
	syncService := service.NewSyncService(studentRepo, contestRepo, problemRepo, txRunner, cfClient, queue.RDB)
	studentService := service.NewStudentService(studentRepo, contestRepo, problemRepo, syncService)
	inactivityService := service.NewInactivityService(studentRepo)
	reminderService := service.NewReminderService(studentRepo, inactivityService, sender)

	// 7. Start the sync worker and the daily reminder scheduler
	syncWorker := worker.NewSyncWorker(queue.RDB, syncService)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go syncWorker.Start(workerCtx)

	sched := scheduler.New(reminderService)
	if err := sched.Start(); err != nil {
		log.Fatalf("Could not start scheduler: %v", err)
	}

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, studentService, syncService, reminderService, inactivityService, sched)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	sched.Stop()
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server, worker and scheduler stopped gracefully.")
}

func newEmailSender() email.Sender {
	if config.AppConfig.EmailBackend == "sendgrid" && config.AppConfig.SendgridAPIKey != "" {
		return email.NewSendgridSender()
	}
	log.Println("Email transport not configured, reminders will be logged instead of sent.")
	return email.NewConsoleSender()
}
