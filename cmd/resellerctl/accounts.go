package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/services"
)

func createAccountCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
		userType string
		phone    string
	)
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create an admin or staff login",
		Long: `Create a password account for the dashboard.
Staff accounts also get a staff referral code, which is printed on success.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client := config.ConnectDB(cfg)
			defer client.Disconnect(context.Background())
			db := client.Database(cfg.DBName)

			users := repositories.NewUserRepository(db)
			issue := func(userID, email, userType string) (string, time.Time, error) {
				return middleware.GenerateJWT(cfg.JWTSecret, userID, email, userType)
			}
			authService := services.NewAuthService(nil, users, issue)

			var staffCode string
			if userType == models.UserTypeStaff {
				referrals := services.NewReferralService(
					repositories.NewStaffReferralRepository(db),
					repositories.NewAccountInfoRepository(db),
				)
				ref, err := referrals.Create(ctx, models.CreateStaffReferralRequest{Name: name, Email: email, Phone: phone})
				if err != nil {
					return fmt.Errorf("create referral code: %w", err)
				}
				staffCode = ref.Code
			}

			user, err := authService.CreateAccount(ctx, email, password, name, userType, staffCode)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s account %s (%s)\n", user.UserType, user.Email, user.UID)
			if staffCode != "" {
				fmt.Printf("Referral code: %s\n", staffCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Login email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (at least 8 characters)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Full name")
	cmd.Flags().StringVarP(&userType, "type", "t", models.UserTypeAdmin, "Account type (admin, staff)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number for staff referral records")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("name")

	return cmd
}
