package utils

import (
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"gopkg.in/gomail.v2"

	"github.com/HSouheill/resellhub_backend/config"
)

const fcmChannelID = "resellhub_fcm_channel"

// BuildPushMessage prepares an FCM message for one device token
func BuildPushMessage(token, title, body, category string, data map[string]string) *messaging.Message {
	notificationData := map[string]string{
		"type":      category,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for key, value := range data {
		notificationData[key] = value
	}

	badge := 1
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: notificationData,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: fcmChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound:    "default",
					Badge:    &badge,
					Category: category,
				},
			},
		},
	}
}

// SendEmail sends a plain text email through the configured SMTP relay
func SendEmail(cfg config.SMTPConfig, to, subject, body string) error {
	if cfg.Host == "" || cfg.User == "" {
		return fmt.Errorf("smtp is not configured")
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
