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

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCreateLoan(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	tech := seedUser(t, r, models.RoleTechnician, true)
	tool := seedTool(t, r, models.ToolAvailable)

	loan, err := r.CreateLoan(ctx, CreateLoanInput{
		ToolID:         tool.ID,
		TechnicianID:   tech.ID,
		Purpose:        "brake job",
		Vehicle:        "ABC-123",
		ExpectedReturn: testNow.Add(5 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, models.LoanActive, loan.Status)
	assert.Equal(t, testNow, loan.BorrowedAt)
	assert.False(t, loan.DueSoonNotified)
	assert.False(t, loan.OverdueNotified)
	assert.False(t, loan.AdminNotified)
	assert.Nil(t, loan.ActualReturn)

	got, err := r.FindToolByID(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ToolBorrowed, got.Status)
}

func TestCreateLoanToolNotAvailable(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	tech := seedUser(t, r, models.RoleTechnician, true)

	for _, status := range []string{models.ToolBorrowed, models.ToolMaintenance, models.ToolDamaged} {
		tool := seedTool(t, r, status)
		_, err := r.CreateLoan(ctx, CreateLoanInput{
			ToolID:         tool.ID,
			TechnicianID:   tech.ID,
			Purpose:        "oil change",
			ExpectedReturn: testNow.Add(time.Hour),
		})
		require.Error(t, err, "status %s", status)
		assert.ErrorIs(t, err, ErrToolNotAvailable)
		// 冲突信息里点名当前状态
		assert.Contains(t, err.Error(), status)

		// 工具没被动过，借用也没插进去
		got, err := r.FindToolByID(ctx, tool.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
		var n int64
		require.NoError(t, r.DB.Model(&models.Loan{}).Where("tool_id = ?", tool.ID).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestCreateLoanToolMissing(t *testing.T) {
	r := newTestRepo(t, testNow)
	tech := seedUser(t, r, models.RoleTechnician, true)

	_, err := r.CreateLoan(context.Background(), CreateLoanInput{
		ToolID:         "00000000-0000-0000-0000-000000000000",
		TechnicianID:   tech.ID,
		Purpose:        "test",
		ExpectedReturn: testNow.Add(time.Hour),
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReturnLoanIdempotent(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	tech := seedUser(t, r, models.RoleTechnician, true)
	tool := seedTool(t, r, models.ToolAvailable)

	loan, err := r.CreateLoan(ctx, CreateLoanInput{
		ToolID: tool.ID, TechnicianID: tech.ID, Purpose: "test",
		ExpectedReturn: testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	got, already, err := r.ReturnLoan(ctx, loan.ID, false, "")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, models.LoanReturned, got.Status)
	require.NotNil(t, got.ActualReturn)
	firstReturn := *got.ActualReturn

	tl, _ := r.FindToolByID(ctx, tool.ID)
	assert.Equal(t, models.ToolAvailable, tl.Status)

	// 第二次归还：不报错，状态不变，actualReturn 不被重写
	got2, already2, err := r.ReturnLoan(ctx, loan.ID, false, "")
	require.NoError(t, err)
	assert.True(t, already2)
	assert.Equal(t, models.LoanReturned, got2.Status)
	require.NotNil(t, got2.ActualReturn)
	assert.True(t, firstReturn.Equal(*got2.ActualReturn))
}

func TestReturnLoanWithDamage(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	tech := seedUser(t, r, models.RoleTechnician, true)
	tool := seedTool(t, r, models.ToolAvailable)

	loan, err := r.CreateLoan(ctx, CreateLoanInput{
		ToolID: tool.ID, TechnicianID: tech.ID, Purpose: "test",
		ExpectedReturn: testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	got, _, err := r.ReturnLoan(ctx, loan.ID, true, "cracked housing")
	require.NoError(t, err)
	assert.True(t, got.ReturnHasDamage)
	assert.Equal(t, "cracked housing", got.ReturnNotes)

	tl, _ := r.FindToolByID(ctx, tool.ID)
	assert.Equal(t, models.ToolDamaged, tl.Status)
}

func TestTransferLoan(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	holder := seedUser(t, r, models.RoleTechnician, true)
	target := seedUser(t, r, models.RoleTechnician, true)
	admin := seedUser(t, r, models.RoleAdmin, true)
	tool := seedTool(t, r, models.ToolAvailable)

	loan, err := r.CreateLoan(ctx, CreateLoanInput{
		ToolID: tool.ID, TechnicianID: holder.ID, Purpose: "test",
		ExpectedReturn: testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	// 标记先全部翻 true，验证转借会清零
	require.NoError(t, r.MarkDueSoonNotified(ctx, loan.ID))
	require.NoError(t, r.MarkOverdueNotified(ctx, loan.ID))
	require.NoError(t, r.MarkAdminNotified(ctx, loan.ID))

	newDue := testNow.AddDate(0, 0, 3)
	got, err := r.TransferLoan(ctx, TransferLoanInput{
		LoanID:         loan.ID,
		ToTechnicianID: target.ID,
		InitiatedBy:    admin.ID,
		Notes:          "handing over mid-job",
		ExpectedReturn: newDue,
	})
	require.NoError(t, err)

	assert.Equal(t, models.LoanActive, got.Status)
	assert.Equal(t, target.ID, got.TechnicianID)
	assert.True(t, newDue.Equal(got.ExpectedReturn))
	assert.False(t, got.DueSoonNotified)
	assert.False(t, got.OverdueNotified)
	assert.False(t, got.AdminNotified)

	require.Len(t, got.Transfers, 1)
	entry := got.Transfers[0]
	assert.Equal(t, holder.ID, entry.FromTechnician)
	assert.Equal(t, target.ID, entry.ToTechnician)
	assert.Equal(t, admin.ID, entry.InitiatedBy)
	assert.Equal(t, "handing over mid-job", entry.Notes)
}

func TestTransferLoanGuards(t *testing.T) {
	r := newTestRepo(t, testNow)
	ctx := context.Background()
	holder := seedUser(t, r, models.RoleTechnician, true)
	target := seedUser(t, r, models.RoleTechnician, true)
	inactive := seedUser(t, r, models.RoleTechnician, false)
	tool := seedTool(t, r, models.ToolAvailable)

	loan, err := r.CreateLoan(ctx, CreateLoanInput{
		ToolID: tool.ID, TechnicianID: holder.ID, Purpose: "test",
		ExpectedReturn: testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	due := testNow.AddDate(0, 0, 3)

	// 转给发起人自己
	_, err = r.TransferLoan(ctx, TransferLoanInput{
		LoanID: loan.ID, ToTechnicianID: target.ID, InitiatedBy: target.ID, ExpectedReturn: due,
	})
	assert.ErrorIs(t, err, ErrTransferSelf)

	// 转给当前持有人
	_, err = r.TransferLoan(ctx, TransferLoanInput{
		LoanID: loan.ID, ToTechnicianID: holder.ID, InitiatedBy: target.ID, ExpectedReturn: due,
	})
	assert.ErrorIs(t, err, ErrTransferSameHolder)

	// 目标已停用
	_, err = r.TransferLoan(ctx, TransferLoanInput{
		LoanID: loan.ID, ToTechnicianID: inactive.ID, InitiatedBy: holder.ID, ExpectedReturn: due,
	})
	assert.ErrorIs(t, err, ErrTechnicianInactive)

	// 已归还的借用不能转
	_, _, err = r.ReturnLoan(ctx, loan.ID, false, "")
	require.NoError(t, err)
	_, err = r.TransferLoan(ctx, TransferLoanInput{
		LoanID: loan.ID, ToTechnicianID: target.ID, InitiatedBy: holder.ID, ExpectedReturn: due,
	})
	assert.ErrorIs(t, err, ErrLoanNotActive)
}
