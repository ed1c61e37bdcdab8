package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"os"
	"strings"
	"time"

	"Gin_postgres_redis_workshop_tools/app"
	"Gin_postgres_redis_workshop_tools/db"
	"Gin_postgres_redis_workshop_tools/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct{ *Srv }

func GetUserController(s *Srv) *UserController { return &UserController{Srv: s} }

type registerReq struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Role    string `json:"role"`
	Expires int    `json:"expiresDays"` // 激活链接有效期，默认 1 天
}

// Register 管理员开账号：不设密码，发激活链接
func (uc *UserController) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	role := in.Role
	if role == "" {
		role = models.RoleTechnician
	}
	if role != models.RoleAdmin && role != models.RoleTechnician {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid role, must be admin or technician"})
		return
	}
	if in.Expires <= 0 {
		in.Expires = 1
	}

	// 一次性激活 token
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)
	expires := time.Now().AddDate(0, 0, in.Expires)

	u := &models.User{
		ID:                uuid.NewString(),
		Name:              in.Name,
		Email:             strings.ToLower(in.Email),
		Role:              role,
		IsActive:          true,
		ActivationToken:   &token,
		ActivationExpires: &expires,
	}
	if err := uc.Repo.CreateUser(c.Request.Context(), u); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	link := strings.TrimRight(uc.Cfg.WebOrigin, "/") + "/activate?token=" + token

	// 发邮件（未配置 SMTP 时打印日志但不报错）
	if err := uc.sendActivationMail(u.Email, link, in.Expires); err != nil {
		log.Printf("[activation email] send failed: %v", err)
	}

	c.JSON(http.StatusCreated, app.H{
		"user": u,
		"link": link, // 方便开发环境直接点
	})
}

type activateReq struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// Activate 用激活 token 设置密码，token 一次性
func (uc *UserController) Activate(c *gin.Context) {
	var in activateReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	u, err := uc.Repo.ActivateUser(c.Request.Context(), in.Token, string(hash))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "invalid activation token"})
		case errors.Is(err, db.ErrTokenExpired):
			c.JSON(http.StatusBadRequest, app.H{"error": "activation token expired"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	tok, err := uc.signToken(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u, "token": tok})
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (uc *UserController) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	u, err := uc.Repo.FindUserByEmail(c.Request.Context(), in.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}
	if !u.IsActive {
		c.JSON(http.StatusForbidden, app.H{"error": "account disabled"})
		return
	}
	if u.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}
	tok, err := uc.signToken(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u, "token": tok})
}

func (uc *UserController) Profile(c *gin.Context) {
	u, err := uc.Repo.FindUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// 在职技师名单（转借时选人用）
func (uc *UserController) ListTechnicians(c *gin.Context) {
	ts, err := uc.Repo.ListTechnicians(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"technicians": ts})
}

func (uc *UserController) ListUsers(c *gin.Context) {
	us, err := uc.Repo.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"users": us})
}

type setActiveReq struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive 停用/恢复账号。不做硬删除，历史借用还指着这个人
func (uc *UserController) SetActive(c *gin.Context) {
	id := c.Param("id")
	if id == currentUserID(c) {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot deactivate yourself"})
		return
	}
	var in setActiveReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if err := uc.Repo.SetUserActive(c.Request.Context(), id, *in.Active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// -------------------- 激活邮件 --------------------

type smtpConf struct {
	Host     string // SMTP_HOST
	Port     string // SMTP_PORT
	Username string // SMTP_USERNAME
	Password string // SMTP_PASSWORD
	From     string // SMTP_FROM，为空时回退 Username
	AppName  string // APP_NAME
}

func loadSMTP() smtpConf {
	get := func(k, d string) string {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
		return d
	}
	return smtpConf{
		Host:     get("SMTP_HOST", ""),
		Port:     get("SMTP_PORT", "587"),
		Username: get("SMTP_USERNAME", ""),
		Password: get("SMTP_PASSWORD", ""),
		From:     get("SMTP_FROM", ""),
		AppName:  get("APP_NAME", "Workshop Tools"),
	}
}

func (uc *UserController) sendActivationMail(toEmail, link string, expiresDays int) error {
	conf := loadSMTP()

	// 未配置 SMTP → 开发模式：打印即可，不报错
	if conf.Host == "" || (conf.Username == "" && conf.From == "") {
		log.Printf("[DEV] Activation link for %s: %s (expires in %d day(s))", toEmail, link, expiresDays)
		return nil
	}

	fromAddr := conf.From
	if fromAddr == "" {
		fromAddr = conf.Username
	}

	subject := fmt.Sprintf("%s Account Activation", conf.AppName)
	htmlBody := fmt.Sprintf(`
<div style="font-family:Arial,sans-serif; font-size:14px; color:#222">
  <p>Hello,</p>
  <p>An account has been created for you on <b>%s</b>. Click the button below to set your password and sign in:</p>
  <p>
    <a href="%s" style="display:inline-block; padding:10px 16px; background:#2563EB; color:#fff; text-decoration:none; border-radius:6px;">
      Activate Account
    </a>
  </p>
  <p>Or open this link directly:</p>
  <p><a href="%s">%s</a></p>
  <p>This link will expire in %d day(s).</p>
  <hr/>
  <p style="color:#666">If you did not expect this email, you can safely ignore it.</p>
</div>
`, conf.AppName, link, link, link, expiresDays)

	msg := buildMIMEWithFromName(conf.AppName, fromAddr, toEmail, subject, htmlBody)

	auth := smtp.PlainAuth("", conf.Username, conf.Password, conf.Host)
	addr := conf.Host + ":" + conf.Port
	return smtp.SendMail(addr, auth, fromAddr, []string{toEmail}, []byte(msg))
}

func buildMIMEWithFromName(fromName, fromAddr, to, subject, html string) string {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", fromName, fromAddr),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + html
}
