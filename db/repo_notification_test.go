package db

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_workshop_tools/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNotificationReadFlow(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	owner := seedUser(t, r, models.RoleTechnician, true)
	other := seedUser(t, r, models.RoleTechnician, true)

	n := &models.Notification{
		RecipientID: owner.ID,
		Message:     "REMINDER: tool due soon",
		Severity:    models.SeverityInfo,
	}
	require.NoError(t, r.CreateNotification(ctx, n))
	require.NotEmpty(t, n.ID)

	count, err := r.CountUnreadNotifications(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// 别人标记不到我的通知
	_, err = r.MarkNotificationRead(ctx, n.ID, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := r.MarkNotificationRead(ctx, n.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)

	count, err = r.CountUnreadNotifications(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 删除也只有本人能删
	assert.ErrorIs(t, r.DeleteNotification(ctx, n.ID, other.ID), gorm.ErrRecordNotFound)
	require.NoError(t, r.DeleteNotification(ctx, n.ID, owner.ID))
}

func TestReportsByTechnician(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	tech := seedUser(t, r, models.RoleTechnician, true)

	// 迟还：actual > expected
	late := seedTool(t, r, models.ToolAvailable)
	loan, err := r.CreateLoan(ctx, CreateLoanInput{
		ToolID: late.ID, TechnicianID: tech.ID, Purpose: "test",
		ExpectedReturn: testNow.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	_, _, err = r.ReturnLoan(ctx, loan.ID, false, "")
	require.NoError(t, err)

	// 带损归还
	damaged := seedTool(t, r, models.ToolAvailable)
	loan2, err := r.CreateLoan(ctx, CreateLoanInput{
		ToolID: damaged.ID, TechnicianID: tech.ID, Purpose: "test",
		ExpectedReturn: testNow.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	_, _, err = r.ReturnLoan(ctx, loan2.ID, true, "bent shaft")
	require.NoError(t, err)

	lateRows, err := r.LateReturnsByTechnician(ctx)
	require.NoError(t, err)
	require.Len(t, lateRows, 1)
	assert.Equal(t, tech.ID, lateRows[0].TechnicianID)
	assert.Equal(t, tech.Name, lateRows[0].TechnicianName)
	assert.EqualValues(t, 1, lateRows[0].Count)

	dmgRows, err := r.DamagedReturnsByTechnician(ctx)
	require.NoError(t, err)
	require.Len(t, dmgRows, 1)
	assert.EqualValues(t, 1, dmgRows[0].Count)
}
