// db/repo_reports.go
package db

import (
	"context"

	"Gin_postgres_redis_workshop_tools/models"
)

// 两个管理端汇总报表：按技师统计迟还 / 带损归还

type TechnicianReportRow struct {
	TechnicianID   string `json:"technicianId"`
	TechnicianName string `json:"technicianName"`
	Count          int64  `json:"count"`
}

// LateReturnsByTechnician 已归还且 actual_return > expected_return
func (r *Repo) LateReturnsByTechnician(ctx context.Context) ([]TechnicianReportRow, error) {
	var rows []TechnicianReportRow
	err := r.DB.WithContext(ctx).
		Table(models.LoanTable+" l").
		Select(`
			l.technician_id AS technician_id,
			COALESCE(u.name, 'unknown') AS technician_name,
			COUNT(*) AS count
		`).
		Joins("LEFT JOIN "+models.UserTable+" u ON u.id = l.technician_id").
		Where("l.status = ? AND l.actual_return IS NOT NULL AND l.actual_return > l.expected_return",
			models.LoanReturned).
		Group("l.technician_id, u.name").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// DamagedReturnsByTechnician 已归还且登记了损坏
func (r *Repo) DamagedReturnsByTechnician(ctx context.Context) ([]TechnicianReportRow, error) {
	var rows []TechnicianReportRow
	err := r.DB.WithContext(ctx).
		Table(models.LoanTable+" l").
		Select(`
			l.technician_id AS technician_id,
			COALESCE(u.name, 'unknown') AS technician_name,
			COUNT(*) AS count
		`).
		Joins("LEFT JOIN "+models.UserTable+" u ON u.id = l.technician_id").
		Where("l.status = ? AND l.return_has_damage = ?", models.LoanReturned, true).
		Group("l.technician_id, u.name").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}
