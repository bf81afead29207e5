package services

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories/inmem"
)

type fakePush struct {
	sent []*messaging.Message
	err  error
}

func (p *fakePush) Send(_ context.Context, msg *messaging.Message) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.sent = append(p.sent, msg)
	return "projects/test/messages/1", nil
}

type sentMail struct {
	to, subject, body string
}

func TestOrderNotifier(t *testing.T) {
	ctx := context.Background()
	accounts := inmem.NewAccountInfoRepository(inmem.Open())
	require.NoError(t, accounts.Upsert(ctx, &models.AccountInfo{UID: "p1", Name: "Asha", FCMToken: "device-1"}))
	require.NoError(t, accounts.Upsert(ctx, &models.AccountInfo{UID: "p2", Name: "Bina"}))

	order := &models.Order{
		PartnerID:   "p1",
		PartnerName: "Asha Services",
		ClientName:  "Ravi",
		ClientEmail: "ravi@example.com",
		Service:     models.ServiceDescriptor{Name: "GST filing"},
		Status:      "Completed",
	}

	t.Run("push and email", func(t *testing.T) {
		push := &fakePush{}
		var mails []sentMail
		n := NewOrderNotifier(push, accounts, config.SMTPConfig{Host: "smtp.example.com"})
		n.sendMail = func(_ config.SMTPConfig, to, subject, body string) error {
			mails = append(mails, sentMail{to, subject, body})
			return nil
		}

		n.OrderStatusChanged(ctx, order)

		require.Len(t, push.sent, 1)
		assert.Equal(t, "device-1", push.sent[0].Token)
		assert.Equal(t, "GST filing for Ravi is now Completed", push.sent[0].Notification.Body)
		assert.Equal(t, "Completed", push.sent[0].Data["status"])
		assert.Equal(t, "ORDER_STATUS", push.sent[0].Data["type"])

		require.Len(t, mails, 1)
		assert.Equal(t, "ravi@example.com", mails[0].to)
		assert.Contains(t, mails[0].body, "Asha Services")
	})

	t.Run("missing channels are skipped", func(t *testing.T) {
		push := &fakePush{}
		mailed := false
		n := NewOrderNotifier(push, accounts, config.SMTPConfig{})
		n.sendMail = func(config.SMTPConfig, string, string, string) error {
			mailed = true
			return nil
		}

		noToken := *order
		noToken.PartnerID = "p2"
		n.OrderStatusChanged(ctx, &noToken)

		assert.Empty(t, push.sent)
		assert.False(t, mailed)
	})

	t.Run("push failure does not stop email", func(t *testing.T) {
		mailed := false
		n := NewOrderNotifier(&fakePush{err: errors.New("unregistered")}, accounts, config.SMTPConfig{Host: "smtp.example.com"})
		n.sendMail = func(config.SMTPConfig, string, string, string) error {
			mailed = true
			return nil
		}

		n.OrderStatusChanged(ctx, order)
		assert.True(t, mailed)
	})
}

func TestSnapshotScopesPartners(t *testing.T) {
	ctx := context.Background()
	db := inmem.Open()
	orders := inmem.NewOrderRepository(db)
	accounts := inmem.NewAccountInfoRepository(db)
	plans := inmem.NewPlanRepository(db)
	svc := NewSnapshotService(orders, accounts, inmem.NewStaffReferralRepository(db), inmem.NewCouponRepository(db), inmem.NewExpenseRepository(db), plans)

	require.NoError(t, orders.Create(ctx, &models.Order{PartnerID: "p1", ClientName: "A"}))
	require.NoError(t, orders.Create(ctx, &models.Order{PartnerID: "p2", ClientName: "B"}))
	require.NoError(t, accounts.Upsert(ctx, &models.AccountInfo{UID: "p1"}))
	require.NoError(t, accounts.Upsert(ctx, &models.AccountInfo{UID: "p2"}))
	require.NoError(t, plans.Create(ctx, &models.Plan{Name: "Gold", IsActive: true}))
	require.NoError(t, plans.Create(ctx, &models.Plan{Name: "Retired"}))

	got, err := svc.Snapshot(ctx, config.CollectionOrders, "p1", models.UserTypePartner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got.([]models.Order)[0].PartnerID)

	got, err = svc.Snapshot(ctx, config.CollectionOrders, "a1", models.UserTypeAdmin)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.Snapshot(ctx, config.CollectionAccountInfo, "p2", models.UserTypePartner)
	require.NoError(t, err)
	assert.Equal(t, []models.AccountInfo{{UID: "p2"}}, stripTimes(got.([]models.AccountInfo)))

	got, err = svc.Snapshot(ctx, config.CollectionPlans, "p1", models.UserTypePartner)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.Snapshot(ctx, config.CollectionUsers, "a1", models.UserTypeAdmin)
	assert.Error(t, err)
}

func stripTimes(infos []models.AccountInfo) []models.AccountInfo {
	out := make([]models.AccountInfo, len(infos))
	for i, info := range infos {
		out[i] = models.AccountInfo{UID: info.UID}
	}
	return out
}
