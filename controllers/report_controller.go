// controllers/report_controller.go
package controllers

import (
	"net/http"

	"Gin_postgres_redis_workshop_tools/app"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

// GET /api/reports/late-returns-by-technician
func (rc *ReportController) LateReturns(c *gin.Context) {
	rows, err := rc.Repo.LateReturnsByTechnician(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"report": rows})
}

// GET /api/reports/damaged-returns-by-technician
func (rc *ReportController) DamagedReturns(c *gin.Context) {
	rows, err := rc.Repo.DamagedReturnsByTechnician(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"report": rows})
}
