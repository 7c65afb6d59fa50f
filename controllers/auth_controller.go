package controllers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	middleware "github.com/phillip/eventhub-go/middleware"
)

const tokenTTL = 12 * time.Hour

// ---------------- LOGIN ----------------
func Login(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := d.Config
		if cfg == nil || !cfg.AuthEnabled() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "authentication is not configured"})
			return
		}

		var input struct {
			Username string `json:"username" form:"username" binding:"required"`
			Password string `json:"password" form:"password" binding:"required"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(cfg.AdminUsername)) == 1
		passErr := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(input.Password))
		if !userOK || passErr != nil {
			log.WithField("username", input.Username).Warn("failed admin login")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := middleware.IssueToken(cfg.JWTSecret, cfg.AdminUsername, middleware.RoleAdmin, tokenTTL)
		if err != nil {
			log.WithError(err).Error("token signing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": int(tokenTTL.Seconds()),
		})
	}
}
