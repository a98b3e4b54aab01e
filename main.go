// @title           Procurement Comparison API
// @version         1.0
// @description     Quotation comparison and selection backend - all endpoints used in the application.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	"procurement/handlers"
	"procurement/repository"
	"procurement/services"
	"procurement/storage"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

var cronRunning int32

func safeGo(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(context.Context) error,
	cronLogger *log.Logger,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				if cronLogger != nil {
					cronLogger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				}
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
			if cronLogger != nil {
				cronLogger.Printf("%s failed: %v", name, err)
			}
		} else {
			log.Printf("%s completed successfully", name)
			if cronLogger != nil {
				cronLogger.Printf("%s completed successfully", name)
			}
		}
	}()
}

func runQuotationExpirySweep(db *sql.DB) error {
	n, err := repository.MarkExpiredQuotations(db)
	if err != nil {
		return err
	}
	log.Printf("marked %d quotations as expired", n)
	return nil
}

func main() {
	db := storage.InitDB()
	gormDB := storage.InitGormDB()

	repo := repository.NewComparisonRepository(db, gormDB)
	emailer := services.NewEmailService()

	// Setup cron job to run maintenance daily at 00:30
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 0 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			if cronLogger != nil {
				cronLogger.Println("Previous cron still running. Skipping this run.")
			}
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance cron job")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		}, cronLogger)

		safeGo(ctx, &wg, "QuotationExpirySweep", func(ctx context.Context) error {
			return runQuotationExpirySweep(db)
		}, cronLogger)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
			if cronLogger != nil {
				cronLogger.Println("Cron timeout reached, jobs cancelled")
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}

	c.Start()

	r := gin.Default()

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/logout", handlers.LogoutHandler(db))

	// ==================== 2. REQUISITIONS & QUOTATIONS ====================
	r.GET("/api/requisitions", handlers.GetApprovedRequisitionsHandler(db))
	r.GET("/api/requisitions/:pr_id", handlers.GetRequisitionHandler(db))
	r.GET("/api/requisitions/:pr_id/quotations", handlers.GetQuotationsForPRHandler(db))

	// ==================== 3. COMPARISONS ====================
	r.GET("/api/requisitions/:pr_id/comparison", handlers.BuildComparisonHandler(db, repo))
	r.GET("/api/comparisons/:id", handlers.GetComparisonHandler(db, repo))
	r.POST("/api/comparisons", handlers.SaveComparisonHandler(db, repo))
	r.PUT("/api/comparisons/:id", handlers.SaveComparisonHandler(db, repo))
	r.POST("/api/comparisons/:id/submit", handlers.SubmitComparisonHandler(db, repo, emailer))
	r.POST("/api/comparisons/:id/heuristic", handlers.ApplyHeuristicHandler(db, repo))
	r.PUT("/api/comparisons/:id/costs", handlers.OverrideCostsHandler(db, repo))
	r.POST("/api/comparisons/:id/revision", handlers.StartRevisionHandler(db, repo))

	// ==================== 4. APPROVALS ====================
	r.GET("/api/approvals", handlers.GetPendingApprovalsHandler(db, repo))
	r.PUT("/api/approvals/:id", handlers.ApprovalActionHandler(db, repo, emailer))

	// ==================== 5. PURCHASE ORDERS ====================
	r.POST("/api/comparisons/:id/purchase-order", handlers.CreatePurchaseOrderHandler(db, repo))
	r.GET("/api/purchase-orders/:id", handlers.GetPurchaseOrderHandler(db))
	r.GET("/api/purchase-orders/:id/qr", handlers.GeneratePOQRCodeJPEG(db))

	// ==================== 6. EXPORTS ====================
	r.GET("/api/comparisons/:id/export/xlsx", handlers.ExportComparisonXLSXHandler(db, repo))
	r.GET("/api/comparisons/:id/export/pdf", handlers.ExportComparisonPDFHandler(db, repo))

	// ==================== 7. SETTINGS ====================
	r.GET("/api/settings/require-three-quotations", handlers.GetRequireThreeSettingHandler(db))
	r.PUT("/api/settings/require-three-quotations", handlers.UpdateRequireThreeSettingHandler(db))

	// ==================== 8. ACTIVITY LOGS ====================
	r.GET("/api/logs", handlers.GetActivityLogsHandler(db))

	// ==================== 9. SWAGGER ====================
	r.GET("/swagger/*any", func(c *gin.Context) {
		if c.Param("any") == "/doc.json" {
			doc, err := swag.ReadDoc("swagger")
			if err != nil {
				c.String(http.StatusInternalServerError, `{"error":"swagger doc not found"}`)
				return
			}
			c.Header("Content-Type", "application/json")
			c.String(http.StatusOK, doc)
			return
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"))(c)
	})

	// Get port from environment variable or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
