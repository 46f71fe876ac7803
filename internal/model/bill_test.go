package model

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestParseBillStatus(t *testing.T) {
	s, err := ParseBillStatus("pending")
	assert.NoError(t, err)
	assert.Equal(t, BillPending, s)

	s, err = ParseBillStatus(" Approved ")
	assert.NoError(t, err)
	assert.Equal(t, BillApproved, s)

	s, err = ParseBillStatus("REJECTED")
	assert.NoError(t, err)
	assert.Equal(t, BillRejected, s)

	_, err = ParseBillStatus("cancelled")
	assert.Error(t, err)

	_, err = ParseBillStatus("")
	assert.Error(t, err)
}

func TestBillDecided(t *testing.T) {
	assert.False(t, Bill{Status: BillPending}.Decided())
	assert.True(t, Bill{Status: BillApproved}.Decided())
	assert.True(t, Bill{Status: BillRejected}.Decided())
}

func TestBillValidate(t *testing.T) {
	valid := Bill{
		UID:          "u1",
		BillNumber:   "B-001",
		CustomerName: "Customer",
		TotalAmount:  500,
		Images:       []string{"Bills/u1/b1/0.jpg"},
	}
	assert.NoError(t, valid.Validate())

	b := valid
	b.UID = ""
	assert.Error(t, b.Validate())

	b = valid
	b.BillNumber = "   "
	assert.Error(t, b.Validate())

	b = valid
	b.TotalAmount = 0
	assert.Error(t, b.Validate())

	b = valid
	b.Images = nil
	assert.Error(t, b.Validate())
}
