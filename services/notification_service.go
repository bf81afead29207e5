package services

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/utils"
)

// PushSender is satisfied by *messaging.Client
type PushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Notifier tells partners and clients about order changes
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order)
}

// OrderNotifier pushes to the partner's device and emails the client.
// Both channels are best-effort.
type OrderNotifier struct {
	push     PushSender
	accounts repositories.AccountInfoRepository
	smtp     config.SMTPConfig
	sendMail func(cfg config.SMTPConfig, to, subject, body string) error
}

// NewOrderNotifier builds a notifier; push may be nil when Firebase is not configured
func NewOrderNotifier(push PushSender, accounts repositories.AccountInfoRepository, smtp config.SMTPConfig) *OrderNotifier {
	return &OrderNotifier{
		push:     push,
		accounts: accounts,
		smtp:     smtp,
		sendMail: utils.SendEmail,
	}
}

func (n *OrderNotifier) OrderStatusChanged(ctx context.Context, order *models.Order) {
	title := "Order status updated"
	body := fmt.Sprintf("%s for %s is now %s", order.Service.Name, order.ClientName, order.Status)

	if n.push != nil {
		if err := n.pushToPartner(ctx, order.PartnerID, title, body, order); err != nil {
			log.Printf("Push notification for order %s skipped: %v", order.ID.Hex(), err)
		}
	}

	if order.ClientEmail != "" && n.smtp.Host != "" {
		mailBody := fmt.Sprintf("Dear %s,\n\nThe status of your %s order is now: %s.\n\nBest regards,\n%s",
			order.ClientName, order.Service.Name, order.Status, orDefault(order.PartnerName, "Your service team"))
		if err := n.sendMail(n.smtp, order.ClientEmail, title, mailBody); err != nil {
			log.Printf("Status email for order %s failed: %v", order.ID.Hex(), err)
		}
	}
}

func (n *OrderNotifier) pushToPartner(ctx context.Context, partnerID, title, body string, order *models.Order) error {
	info, err := n.accounts.FindByUID(ctx, partnerID)
	if err != nil {
		return fmt.Errorf("failed to find partner: %w", err)
	}
	if info.FCMToken == "" {
		return fmt.Errorf("partner has no FCM token")
	}

	msg := utils.BuildPushMessage(info.FCMToken, title, body, "ORDER_STATUS", map[string]string{
		"orderId": order.ID.Hex(),
		"status":  order.Status,
	})
	response, err := n.push.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}
	log.Printf("FCM notification sent successfully to partner %s: %s", partnerID, response)
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
