// controllers/loan_controller.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"Gin_postgres_redis_workshop_tools/app"
	"Gin_postgres_redis_workshop_tools/db"
	"Gin_postgres_redis_workshop_tools/duedate"
	"Gin_postgres_redis_workshop_tools/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

// 借还记录：管理员看全部（可带过滤），技师只看自己的
func (lc *LoanController) ListLoans(c *gin.Context) {
	f := db.LoanFilter{
		ToolID: c.Query("toolId"),
		Status: c.Query("status"),
	}
	if isAdmin(c) {
		f.TechnicianID = c.Query("technicianId")
	} else {
		f.TechnicianID = currentUserID(c)
	}
	ls, err := lc.Repo.ListLoans(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"loans": ls})
}

func (lc *LoanController) GetLoan(c *gin.Context) {
	loan, err := lc.Repo.FindLoanByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "loan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if !isAdmin(c) && loan.TechnicianID != currentUserID(c) {
		c.JSON(http.StatusForbidden, app.H{"error": "not your loan"})
		return
	}
	c.JSON(http.StatusOK, app.H{"loan": loan})
}

// 技师：自己手上还没还的工具
func (lc *LoanController) MyLoans(c *gin.Context) {
	ls, err := lc.Repo.ListLoans(c.Request.Context(), db.LoanFilter{
		TechnicianID: currentUserID(c),
		Status:       models.LoanActive,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"loans": ls})
}

type createLoanReq struct {
	ToolID         string `json:"toolId" binding:"required"`
	Purpose        string `json:"purpose" binding:"required"`
	Vehicle        string `json:"vehicle"`
	ExpectedReturn string `json:"expectedReturn"` // RFC3339，可选
	LoanDuration   string `json:"loanDuration"`   // "5h" / "3d"，可选
}

// 借出
func (lc *LoanController) CreateLoan(c *gin.Context) {
	var in createLoanReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	// 创建走宽松解析：给错了就默认 3 天（历史行为）
	due := duedate.Resolve(time.Now().UTC(), in.ExpectedReturn, in.LoanDuration)

	loan, err := lc.Repo.CreateLoan(c.Request.Context(), db.CreateLoanInput{
		ToolID:         in.ToolID,
		TechnicianID:   currentUserID(c),
		Purpose:        in.Purpose,
		Vehicle:        in.Vehicle,
		ExpectedReturn: due,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "tool not found"})
		case errors.Is(err, db.ErrToolNotAvailable):
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, app.H{"loan": loan})
}

type returnLoanReq struct {
	HasDamage bool   `json:"hasDamage"`
	Notes     string `json:"notes"`
}

// 归还。重复调用不是错误：返回当前状态并带 alreadyReturned 标记
func (lc *LoanController) Return(c *gin.Context) {
	loanID := c.Param("id")

	var in returnLoanReq
	_ = c.ShouldBindJSON(&in) // body 可选

	// 先做归属检查，管理员可以替人归还
	loan, err := lc.Repo.FindLoanByID(c.Request.Context(), loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "loan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if !isAdmin(c) && loan.TechnicianID != currentUserID(c) {
		c.JSON(http.StatusForbidden, app.H{"error": "not your loan"})
		return
	}

	loan, already, err := lc.Repo.ReturnLoan(c.Request.Context(), loanID, in.HasDamage, in.Notes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"loan": loan, "alreadyReturned": already})
}

type transferLoanReq struct {
	ToTechnicianID string `json:"toTechnicianId" binding:"required"`
	Purpose        string `json:"purpose"`
	Vehicle        string `json:"vehicle"`
	Notes          string `json:"notes"`
	ExpectedReturn string `json:"expectedReturn"`
	LoanDuration   string `json:"loanDuration"`
}

// 转借：到期时间重算，这里是严格解析，给错直接 400
func (lc *LoanController) Transfer(c *gin.Context) {
	var in transferLoanReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	due, err := duedate.ResolveStrict(time.Now().UTC(), in.ExpectedReturn, in.LoanDuration)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	loan, err := lc.Repo.TransferLoan(c.Request.Context(), db.TransferLoanInput{
		LoanID:         c.Param("id"),
		ToTechnicianID: in.ToTechnicianID,
		InitiatedBy:    currentUserID(c),
		Purpose:        in.Purpose,
		Vehicle:        in.Vehicle,
		Notes:          in.Notes,
		ExpectedReturn: due,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "loan or technician not found"})
		case errors.Is(err, db.ErrLoanNotActive),
			errors.Is(err, db.ErrTransferSelf),
			errors.Is(err, db.ErrTransferSameHolder):
			c.JSON(http.StatusConflict, app.H{"error": err.Error()})
		case errors.Is(err, db.ErrTechnicianInactive):
			c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, app.H{"loan": loan})
}
