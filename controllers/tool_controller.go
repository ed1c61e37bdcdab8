// controllers/tool_controller.go
package controllers

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_workshop_tools/app"
	"Gin_postgres_redis_workshop_tools/db"
	"Gin_postgres_redis_workshop_tools/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ToolController struct{ *Srv }

func NewToolController(s *Srv) *ToolController { return &ToolController{Srv: s} }

// 列表（?category=&status=，status 可重复传多个）
func (tc *ToolController) ListTools(c *gin.Context) {
	tools, err := tc.Repo.ListTools(c.Request.Context(), c.Query("category"), c.QueryArray("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"tools": tools})
}

func (tc *ToolController) GetTool(c *gin.Context) {
	t, err := tc.Repo.FindToolByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "tool not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"tool": t})
}

type createToolReq struct {
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category" binding:"required"`
	SerialNumber *string `json:"serialNumber"`
	Location     string  `json:"location"`
	Description  string  `json:"description"`
	Cost         float64 `json:"cost"`
}

// 管理员录入新工具
func (tc *ToolController) CreateTool(c *gin.Context) {
	var in createToolReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Cost < 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "cost cannot be negative"})
		return
	}
	addedBy := currentUserID(c)
	t := &models.Tool{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Category:     in.Category,
		SerialNumber: in.SerialNumber,
		Status:       models.ToolAvailable,
		Description:  in.Description,
		Cost:         in.Cost,
		AddedBy:      &addedBy,
	}
	if in.Location != "" {
		t.Location = in.Location
	}
	if err := tc.Repo.CreateTool(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, app.H{"tool": t})
}

// 普通字段更新；状态字段被丢弃，状态走 PATCH /:id/status
func (tc *ToolController) UpdateTool(c *gin.Context) {
	var in map[string]interface{}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	fields := map[string]interface{}{}
	for k, v := range in {
		switch k {
		case "name", "category", "location", "description", "cost", "serialNumber":
			col := k
			if k == "serialNumber" {
				col = "serial_number"
			}
			fields[col] = v
		}
	}
	t, err := tc.Repo.UpdateTool(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "tool not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"tool": t})
}

func (tc *ToolController) DeleteTool(c *gin.Context) {
	err := tc.Repo.DeleteTool(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "tool not found"})
		case errors.Is(err, db.ErrToolOnLoan):
			c.JSON(http.StatusConflict, app.H{"error": "cannot delete a tool that is currently on loan"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

type toolStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (tc *ToolController) UpdateToolStatus(c *gin.Context) {
	var in toolStatusReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if !models.ValidToolStatus(in.Status) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid status, must be one of: available, borrowed, maintenance, damaged"})
		return
	}
	t, err := tc.Repo.UpdateToolStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "tool not found"})
		case errors.Is(err, db.ErrToolOnLoan):
			c.JSON(http.StatusConflict, app.H{"error": "cannot change status to available while the tool is on loan"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, app.H{"tool": t})
}
