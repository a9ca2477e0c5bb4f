package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linkmonitor/middleware"
	"linkmonitor/services"
)

var monitor *services.Monitor

// InitMonitor wires the monitoring service used by the handlers below.
// Called once from main before the router starts.
func InitMonitor(m *services.Monitor) {
	monitor = m
}

// passTimeout bounds a whole monitoring pass so one wedged probe target
// cannot hold the request open forever.
const passTimeout = 2 * time.Minute

// Monitoring runs one monitoring pass for the caller's scope and returns
// the unreachable-asset report.
func Monitoring(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), passTimeout)
	defer cancel()

	report, err := monitor.RunPass(ctx, middleware.ScopeFrom(c))
	if err != nil {
		fmt.Printf("Error running monitoring pass: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error while fetching unreachable assets"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func GetRunningAssetsCount(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), passTimeout)
	defer cancel()

	up, _, err := monitor.CountReachability(ctx, middleware.ScopeFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runningAssetsCount": up})
}

func GetUnreachableAssetsCount(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), passTimeout)
	defer cancel()

	_, down, err := monitor.CountReachability(ctx, middleware.ScopeFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreachableAssetsCount": down})
}
