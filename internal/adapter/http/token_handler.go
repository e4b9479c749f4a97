package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aq2208/gorder-seed/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type TokenHandler struct {
	clients *security.Registry
	cfg     TokenConfig
	now     func() time.Time
}

func NewTokenHandler(clients *security.Registry, cfg TokenConfig) *TokenHandler {
	return &TokenHandler{clients: clients, cfg: cfg, now: time.Now}
}

type tokenReq struct {
	ClientID     string `form:"client_id" json:"client_id" binding:"required"`
	ClientSecret string `form:"client_secret" json:"client_secret" binding:"required"`
	Scope        string `form:"scope" json:"scope"` // space-separated subset of the client's perms
}

// POST /v1/token (form or JSON)
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	cl, ok := h.clients.Authenticate(req.ClientID, req.ClientSecret)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}
	perms, ok := cl.Grant(strings.Fields(req.Scope))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_scope"})
		return
	}

	now := h.now()
	claims := jwt.MapClaims{
		"iss":       h.cfg.Issuer,
		"aud":       h.cfg.Audience,
		"sub":       cl.ID,
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       now.Add(h.cfg.TTL).Unix(),
		"client_id": cl.ID,
		"perms":     perms,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.Secret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int64(h.cfg.TTL.Seconds()),
		"scope":        strings.Join(perms, " "),
	})
}
