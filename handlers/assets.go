package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkmonitor/db"
	"linkmonitor/middleware"
)

func ListAssets(c *gin.Context) {
	store := db.NewAssetStore(db.GetDB())
	assets, err := store.List(c.Request.Context(), middleware.ScopeFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, assets)
}

func GetAssetByLinkID(c *gin.Context) {
	store := db.NewAssetStore(db.GetDB())
	asset, err := store.GetByLinkID(c.Request.Context(), middleware.ScopeFrom(c), c.Param("linkId"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "Asset not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, asset)
}

func GetAssetCount(c *gin.Context) {
	store := db.NewAssetStore(db.GetDB())
	n, err := store.Count(c.Request.Context(), middleware.ScopeFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// UpdateAssetStatus flips an asset between Active and Inactive. Inactive
// assets are skipped by monitoring passes.
func UpdateAssetStatus(c *gin.Context) {
	var req struct {
		LinkID string `json:"linkId" binding:"required"`
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Link ID and status are required"})
		return
	}
	if req.Status != "Active" && req.Status != "Inactive" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status provided"})
		return
	}

	store := db.NewAssetStore(db.GetDB())
	err := store.UpdateStatus(c.Request.Context(), req.LinkID, req.Status)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"message": "Asset not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Asset status updated successfully"})
}

// UpdateAllEmailNotifications toggles the alert opt-in flag for every asset
// in the caller's scope.
func UpdateAllEmailNotifications(c *gin.Context) {
	var req struct {
		EmailNotifications *bool `json:"emailNotifications" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "emailNotifications is required"})
		return
	}

	store := db.NewAssetStore(db.GetDB())
	if err := store.SetAllEmailNotifications(c.Request.Context(), middleware.ScopeFrom(c), *req.EmailNotifications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email notifications status updated successfully for all assets"})
}
