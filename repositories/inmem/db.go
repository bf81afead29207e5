// Package inmem keeps repository data in process memory. Tests use it in place of MongoDB.
package inmem

import (
	"sync"

	"github.com/HSouheill/resellhub_backend/models"
)

type DB struct {
	mu             sync.RWMutex
	orders         map[string]*models.Order
	accountInfo    map[string]*models.AccountInfo
	staffReferrals map[string]*models.StaffReferral
	expenses       []*models.Expense
	coupons        map[string]*models.Coupon
	plans          map[string]*models.Plan
	payments       map[string]*models.PaymentTransaction
	users          map[string]*models.User
}

func Open() *DB {
	return &DB{
		orders:         make(map[string]*models.Order),
		accountInfo:    make(map[string]*models.AccountInfo),
		staffReferrals: make(map[string]*models.StaffReferral),
		coupons:        make(map[string]*models.Coupon),
		plans:          make(map[string]*models.Plan),
		payments:       make(map[string]*models.PaymentTransaction),
		users:          make(map[string]*models.User),
	}
}
