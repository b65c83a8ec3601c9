package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/condo-admin/backend/internal/auth"
	"github.com/condo-admin/backend/internal/service"
	"github.com/condo-admin/backend/internal/storage"
	"github.com/condo-admin/backend/internal/storage/models"
)

func createAdminCmd() *cobra.Command {
	var name, email, cedula string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active administrator account",
		Long: "Create an active administrator account. The password is read from " +
			"CONDO_ADMIN_PASSWORD so it does not end up in shell history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("CONDO_ADMIN_PASSWORD")
			if password == "" {
				return errors.New("CONDO_ADMIN_PASSWORD must be set")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := storage.RunMigrations(db); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			users := service.NewUserService(storage.NewUserRepository(db), auth.NewHasher(auth.Params{}), nil)
			user, err := users.Create(cmd.Context(), service.CreateUserInput{
				RegisterInput: service.RegisterInput{
					Name:     name,
					Email:    email,
					Cedula:   cedula,
					Password: password,
					Role:     models.RoleAdmin,
				},
				Status: models.UserStatusActive,
			})
			if err != nil {
				return fmt.Errorf("creating administrator: %w", err)
			}

			log.Printf("Created administrator %s (%s)", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&cedula, "cedula", "", "National ID number")
	cmd.Flags().String("data", "", "Data directory for the SQLite database")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("cedula")
	return cmd
}
