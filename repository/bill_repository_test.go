package repository

import (
	"context"
	"testing"
	"time"

	"drinktab/models"
	"drinktab/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBillRepository_UpsertAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBillRepository(testDB.DB)
	ctx := context.Background()

	bill := testutil.CreateTestBill("khoa-runsystem.net", billDate(2024, time.March, 15), 45000)
	items := []*models.BillItem{
		testutil.CreateTestItem(bill.ID, "Trà sữa", 2, 15000),
		testutil.CreateTestItem(bill.ID, "Cà phê", 1, 15000),
	}

	require.NoError(t, repo.Upsert(ctx, bill, items))

	t.Run("found by owner key", func(t *testing.T) {
		bills, err := repo.GetByOwnerKeys(ctx, []string{"khoa-runsystem.net"})
		require.NoError(t, err)
		require.Len(t, bills, 1)
		assert.Equal(t, bill.ID, bills[0].ID)
		assert.Equal(t, int64(45000), bills[0].TotalAmount)
		assert.False(t, bills[0].IsPaid)
	})

	t.Run("other keys find nothing", func(t *testing.T) {
		bills, err := repo.GetByOwnerKeys(ctx, []string{"duc-runsystem.net"})
		require.NoError(t, err)
		assert.Empty(t, bills)
	})

	t.Run("upsert replaces the item list", func(t *testing.T) {
		replacement := []*models.BillItem{
			testutil.CreateTestItem(bill.ID, "Bia", 3, 18000),
		}
		bill.TotalAmount = 54000
		require.NoError(t, repo.Upsert(ctx, bill, replacement))

		detailed, err := repo.GetAllDetailed(ctx)
		require.NoError(t, err)
		require.Len(t, detailed, 1)
		require.Len(t, detailed[0].Items, 1)
		assert.Equal(t, "Bia", detailed[0].Items[0].ItemName)
		assert.Equal(t, int64(54000), detailed[0].TotalAmount)
	})
}

func TestBillRepository_GetAllDetailed(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	billRepo := NewBillRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	khoa := testutil.CreateTestUser("Khoa", "khoa-runsystem.net")
	require.NoError(t, userRepo.Create(ctx, khoa))

	// One bill keyed by tag id, one keyed by user id, one orphaned
	byTag := testutil.CreateTestBill(khoa.TagID, billDate(2024, time.March, 10), 30000)
	byID := testutil.CreateTestBill(khoa.ID, billDate(2024, time.March, 20), 15000)
	orphan := testutil.CreateTestBill("left-the-company", billDate(2024, time.January, 1), 9000)

	require.NoError(t, billRepo.Upsert(ctx, byTag, nil))
	require.NoError(t, billRepo.Upsert(ctx, byID, nil))
	require.NoError(t, billRepo.Upsert(ctx, orphan, nil))

	detailed, err := billRepo.GetAllDetailed(ctx)
	require.NoError(t, err)
	require.Len(t, detailed, 3)

	// Newest first
	assert.Equal(t, byID.ID, detailed[0].ID)
	assert.Equal(t, byTag.ID, detailed[1].ID)
	assert.Equal(t, orphan.ID, detailed[2].ID)

	// Owner resolved through either key, absent for the orphan
	require.NotNil(t, detailed[0].Owner)
	assert.Equal(t, khoa.ID, detailed[0].Owner.ID)
	require.NotNil(t, detailed[1].Owner)
	assert.Equal(t, khoa.ID, detailed[1].Owner.ID)
	assert.Nil(t, detailed[2].Owner)
}

func TestBillRepository_GetUnpaidByOwnerKeys(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBillRepository(testDB.DB)
	ctx := context.Background()

	keys := []string{"u-1", "khoa-runsystem.net"}

	// Old unpaid debt stays visible, paid bills do not
	old := testutil.CreateTestBill("khoa-runsystem.net", billDate(2022, time.June, 1), 30000)
	recent := testutil.CreateTestBill("u-1", billDate(2024, time.March, 15), 15000)
	paid := testutil.CreateTestPaidBill("u-1", billDate(2024, time.March, 1), 99000)

	require.NoError(t, repo.Upsert(ctx, old, nil))
	require.NoError(t, repo.Upsert(ctx, recent, nil))
	require.NoError(t, repo.Upsert(ctx, paid, nil))

	unpaid, err := repo.GetUnpaidByOwnerKeys(ctx, keys)
	require.NoError(t, err)
	require.Len(t, unpaid, 2)
	assert.Equal(t, recent.ID, unpaid[0].ID)
	assert.Equal(t, old.ID, unpaid[1].ID)
}

func TestBillRepository_MarkAllPaidByOwnerKeys(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBillRepository(testDB.DB)
	ctx := context.Background()

	keys := []string{"u-1", "khoa-runsystem.net"}

	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestBill("u-1", billDate(2024, time.March, 1), 10000), nil))
	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestBill("khoa-runsystem.net", billDate(2024, time.February, 1), 20000), nil))
	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestPaidBill("u-1", billDate(2024, time.January, 1), 5000), nil))
	other := testutil.CreateTestBill("duc-runsystem.net", billDate(2024, time.March, 1), 7000)
	require.NoError(t, repo.Upsert(ctx, other, nil))

	marked, err := repo.MarkAllPaidByOwnerKeys(ctx, keys)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	unpaid, err := repo.GetUnpaidByOwnerKeys(ctx, keys)
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	// Another member's bill is untouched
	otherUnpaid, err := repo.GetUnpaidByOwnerKeys(ctx, []string{"duc-runsystem.net"})
	require.NoError(t, err)
	require.Len(t, otherUnpaid, 1)

	t.Run("second settle marks nothing", func(t *testing.T) {
		marked, err := repo.MarkAllPaidByOwnerKeys(ctx, keys)
		require.NoError(t, err)
		assert.Zero(t, marked)
	})
}

func TestBillRepository_Delete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBillRepository(testDB.DB)
	ctx := context.Background()

	bill := testutil.CreateTestBill("khoa-runsystem.net", billDate(2024, time.March, 15), 45000)
	items := []*models.BillItem{testutil.CreateTestItem(bill.ID, "Trà sữa", 1, 45000)}
	require.NoError(t, repo.Upsert(ctx, bill, items))

	require.NoError(t, repo.Delete(ctx, bill.ID))

	detailed, err := repo.GetAllDetailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, detailed)

	assert.Error(t, repo.Delete(ctx, bill.ID))
}
