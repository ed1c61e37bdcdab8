// app/bootstrap.go
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"Gin_postgres_redis_workshop_tools/db"
	"Gin_postgres_redis_workshop_tools/models"

	"github.com/google/uuid"
)

// BootstrapFirstAdmin 没有管理员时按 BOOTSTRAP_EMAIL 建一个待激活账号，
// 激活链接直接打在日志里。
func BootstrapFirstAdmin(ctx context.Context, cfg Config, repo *db.Repo) {
	if cfg.BootstrapEmail == "" {
		return
	}
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		log.Printf("bootstrap: count admins failed: %v", err)
		return
	}
	if n > 0 {
		return
	}

	// 一次性激活令牌
	buf := make([]byte, 16)
	rand.Read(buf)
	token := hex.EncodeToString(buf)
	expires := time.Now().Add(24 * time.Hour)

	email := strings.ToLower(cfg.BootstrapEmail)
	u := &models.User{
		ID:                uuid.NewString(),
		Name:              email,
		Email:             email,
		Role:              models.RoleAdmin,
		IsActive:          true,
		ActivationToken:   &token,
		ActivationExpires: &expires,
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		log.Printf("bootstrap: create admin failed: %v", err)
		return
	}

	link := strings.TrimRight(cfg.WebOrigin, "/") + "/activate?token=" + token
	log.Printf("[BOOTSTRAP] no admin found, created one for %s", email)
	log.Printf("[BOOTSTRAP] open this URL to set the admin password: %s", link)
}
