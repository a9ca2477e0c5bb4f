package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"linkmonitor/config"
	"linkmonitor/db"
	"linkmonitor/handlers"
	"linkmonitor/middleware"
	"linkmonitor/models"
	"linkmonitor/services"
)

func runMigrations() {
	sqlBytes, err := os.ReadFile("schema.sql")
	if err != nil {
		log.Fatal("Failed to read schema.sql:", err)
	}

	if _, err := db.GetDB().Exec(string(sqlBytes)); err != nil {
		log.Fatal("Failed to apply schema:", err)
	}
	log.Println("Database schema verified")
}

func envSeconds(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(fallback) * time.Second
}

func main() {
	if err := db.InitDB(); err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	runMigrations()

	features := config.LoadFeatures()
	log.Printf("Features: auth=%v monitor_loop=%v privileged_icmp=%v",
		features.AuthEnabled, features.MonitorLoop, features.PrivilegedICMP)

	conn := db.GetDB()
	assetStore := db.NewAssetStore(conn)
	ticketStore := db.NewTicketStore(conn)

	// Imported ticket data must not collide with newly issued serials.
	if err := ticketStore.SyncSequence(context.Background()); err != nil {
		log.Fatal("Failed to sync ticket sequence: ", err)
	}

	prober := services.NewPingProber(envSeconds("PING_TIMEOUT_SECONDS", 5), features.PrivilegedICMP)

	mailer := services.NewAlertMailerFromEnv()
	if mailer == nil {
		log.Println("SENDGRID_API_KEY or EMAIL_FROM not set, alert emails disabled")
	}

	var notifier services.Notifier
	if mailer != nil {
		notifier = mailer
	}
	monitor := services.NewMonitor(assetStore, ticketStore, services.NewTicketSequencer(ticketStore), prober, notifier)
	handlers.InitMonitor(monitor)

	// Background monitoring loop; the HTTP endpoint stays the authoritative
	// trigger, this just keeps timers and tickets moving between requests.
	if features.MonitorLoop {
		interval := envSeconds("MONITOR_INTERVAL_SECONDS", 60)
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("Monitor loop panic: %v", r)
						}
					}()
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
					defer cancel()
					if _, err := monitor.RunPass(ctx, models.Scope{Admin: true}); err != nil {
						log.Printf("Monitor loop pass failed: %v", err)
					}
				}()
			}
		}()
		log.Printf("Background monitor loop started (every %v)", interval)
	}

	r := gin.Default()

	r.POST("/api/auth/signup", handlers.Signup)
	r.POST("/api/auth/login", handlers.Login)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		api.GET("/monitor", handlers.Monitoring)

		api.GET("/assets", handlers.ListAssets)
		api.GET("/assets/count", handlers.GetAssetCount)
		api.GET("/assets/running-count", handlers.GetRunningAssetsCount)
		api.GET("/assets/unreachable-count", handlers.GetUnreachableAssetsCount)
		api.GET("/assets/:linkId", handlers.GetAssetByLinkID)
		api.PATCH("/assets/status", handlers.UpdateAssetStatus)
		api.PUT("/assets/email-notifications", handlers.UpdateAllEmailNotifications)

		api.GET("/tickets", handlers.ListTickets)
		api.GET("/tickets/latest", handlers.GetLatestTicket)
		api.GET("/tickets/open-count", handlers.GetOpenTicketsCount)
		api.GET("/tickets/pending-count", handlers.GetPendingTicketsCount)
		api.GET("/tickets/count-by-date", handlers.GetTicketsCountByDate)
		api.GET("/tickets/:ticketNo", handlers.GetTicketByNo)
		api.PUT("/tickets/:ticketNo", handlers.UpdateTicketByNo)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Println("Server starting on port " + port)
	r.Run(":" + port)
}
