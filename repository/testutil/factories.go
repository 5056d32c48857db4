package testutil

import (
	"time"

	"drinktab/models"

	"github.com/google/uuid"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(userName, tagID string) *models.User {
	return &models.User{
		ID:       uuid.NewString(),
		TagID:    tagID,
		UserName: userName,
		Role:     models.RoleMember,
		Email:    tagID + "@example.vn",
	}
}

// CreateTestUserWithChannel creates a test user bound to a ChatOps channel
func CreateTestUserWithChannel(userName, tagID, channelID string) *models.User {
	user := CreateTestUser(userName, tagID)
	user.ChatOpsChannelID = channelID
	return user
}

// CreateTestBill creates an unpaid test bill for the given owner key
func CreateTestBill(ownerKey string, billDate time.Time, totalAmount int64) *models.Bill {
	return &models.Bill{
		ID:          uuid.NewString(),
		UserID:      ownerKey,
		BillDate:    billDate,
		TotalAmount: totalAmount,
	}
}

// CreateTestPaidBill creates a paid test bill for the given owner key
func CreateTestPaidBill(ownerKey string, billDate time.Time, totalAmount int64) *models.Bill {
	bill := CreateTestBill(ownerKey, billDate, totalAmount)
	bill.IsPaid = true
	return bill
}

// CreateTestItem creates a test bill item
func CreateTestItem(billID, itemName string, quantity int, unitPrice int64) *models.BillItem {
	return &models.BillItem{
		ID:        uuid.NewString(),
		BillID:    billID,
		ItemName:  itemName,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
}
