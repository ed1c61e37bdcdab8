package db

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_redis_workshop_tools/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateToolStatusGuardsActiveLoan(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	tech := seedUser(t, r, models.RoleTechnician, true)
	tool := seedTool(t, r, models.ToolAvailable)

	_, err := r.CreateLoan(ctx, CreateLoanInput{
		ToolID: tool.ID, TechnicianID: tech.ID, Purpose: "test",
		ExpectedReturn: testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	// 有 active 借用时不允许手动改回 available
	_, err = r.UpdateToolStatus(ctx, tool.ID, models.ToolAvailable)
	assert.ErrorIs(t, err, ErrToolOnLoan)

	// 删除也一样
	err = r.DeleteTool(ctx, tool.ID)
	assert.ErrorIs(t, err, ErrToolOnLoan)
}

func TestUpdateToolStatusStampsMaintenance(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	tool := seedTool(t, r, models.ToolMaintenance)

	got, err := r.UpdateToolStatus(ctx, tool.ID, models.ToolAvailable)
	require.NoError(t, err)
	assert.Equal(t, models.ToolAvailable, got.Status)

	// 修完回可用要盖保养时间戳
	fresh, err := r.FindToolByID(ctx, tool.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.LastMaintenance)
	assert.True(t, testNow.Equal(*fresh.LastMaintenance))
}

func TestListToolsFilters(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()

	a := seedTool(t, r, models.ToolAvailable)
	b := seedTool(t, r, models.ToolMaintenance)
	c := seedTool(t, r, models.ToolDamaged)
	_ = a

	got, err := r.ListTools(ctx, "", []string{models.ToolMaintenance, models.ToolDamaged})
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.Contains(t, ids, b.ID)
	assert.Contains(t, ids, c.ID)

	got, err = r.ListTools(ctx, "no-such-category", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
