package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/services"
)

func signCmd() *cobra.Command {
	var (
		amount float64
		txnID  string
		status bool
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the gateway payload and X-VERIFY header for a test payment",
		Long: `Compute the signed request the server would send to the payment gateway.
Useful for comparing against the gateway's checksum calculator when credentials are rotated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			gateway := services.NewPhonePeService(cfg.PhonePe)
			if txnID == "" {
				txnID = services.NewMerchantTransactionID()
			}

			if status {
				path, xVerify := gateway.StatusSignature(txnID)
				fmt.Printf("GET %s%s\nX-VERIFY: %s\nX-MERCHANT-ID: %s\n", cfg.PhonePe.Host, path, xVerify, gateway.MerchantID())
				return nil
			}

			req := models.PhonePePayRequest{
				MerchantID:            gateway.MerchantID(),
				MerchantTransactionID: txnID,
				MerchantUserID:        "MUIDCLI",
				Amount:                services.ToPaise(amount),
				RedirectURL:           cfg.PhonePe.RedirectURL,
				RedirectMode:          "POST",
				CallbackURL:           cfg.PhonePe.CallbackURL,
				PaymentInstrument:     models.PhonePePaymentInstrument{Type: "PAY_PAGE"},
			}
			payload, xVerify, err := gateway.PaySignature(req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"request":  req,
				"payload":  payload,
				"xVerify":  xVerify,
				"endpoint": cfg.PhonePe.Host + "/pg/v1/pay",
			})
		},
	}

	cmd.Flags().Float64VarP(&amount, "amount", "a", 1, "Amount in rupees")
	cmd.Flags().StringVar(&txnID, "txn", "", "Merchant transaction id (generated when empty)")
	cmd.Flags().BoolVar(&status, "status", false, "Sign a status check for --txn instead of a payment")

	return cmd
}
