// controllers/srv.go
package controllers

import (
	"time"

	"Gin_postgres_redis_workshop_tools/app"
	"Gin_postgres_redis_workshop_tools/db"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

type Srv struct {
	Repo *db.Repo
	RDB  *redis.Client
	Cfg  app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo: db.NewRepo(a.DB),
		RDB:  a.RDB,
		Cfg:  a.Config,
	}
}

// --- helpers ---

func currentUserID(c *gin.Context) string {
	v, _ := c.Get("userID")
	id, _ := v.(string)
	return id
}

func currentRole(c *gin.Context) string {
	v, _ := c.Get("role")
	role, _ := v.(string)
	return role
}

func isAdmin(c *gin.Context) bool { return currentRole(c) == "admin" }

// signToken 签发登录 token，sub = userID
func (s *Srv) signToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.Cfg.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Cfg.JWTSecret))
}
