package main

import (
	"context"
	"fmt"

	"github.com/healthtrackhq/backend/internal/accounts"
	"github.com/healthtrackhq/backend/internal/config"
	"github.com/healthtrackhq/backend/internal/database"
	"github.com/healthtrackhq/backend/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

func newAdminCommand() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative database operations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	adminCmd.AddCommand(&cobra.Command{
		Use:   "list-users",
		Short: "List all registered accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd.Context(), func(ctx context.Context, service *accounts.Service) error {
				users, err := service.List(ctx)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					cmd.Println("no users registered")
					return nil
				}
				for _, user := range users {
					email := "-"
					if user.Email != nil {
						email = *user.Email
					}
					cmd.Printf("%-6d %-20s %-30s target=%d kcal created=%s\n",
						user.ID, user.Username, email, user.TargetCalories,
						user.CreatedAt.Format("2006-01-02"))
				}
				return nil
			})
		},
	})

	createCmd := &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			return withAccounts(cmd.Context(), func(ctx context.Context, service *accounts.Service) error {
				user, err := service.Register(ctx, accounts.RegisterInput{
					Username: args[0],
					Password: args[1],
					Email:    email,
					Name:     name,
				})
				if err != nil {
					return err
				}
				cmd.Printf("created user %s (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("name", "", "Display name")
	adminCmd.AddCommand(createCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete-user <username>",
		Short: "Delete an account and all of its tracked data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				return fmt.Errorf("deleting %q removes all of its data; re-run with --yes to confirm", args[0])
			}
			return withAccounts(cmd.Context(), func(ctx context.Context, service *accounts.Service) error {
				if err := service.Delete(ctx, args[0]); err != nil {
					return err
				}
				cmd.Printf("deleted user %s\n", args[0])
				return nil
			})
		},
	}
	deleteCmd.Flags().Bool("yes", false, "Confirm deletion")
	adminCmd.AddCommand(deleteCmd)

	adminCmd.AddCommand(&cobra.Command{
		Use:   "user-stats <username>",
		Short: "Show tracked-data statistics for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd.Context(), func(ctx context.Context, service *accounts.Service) error {
				stats, err := service.Stats(ctx, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("user:            %s (%s)\n", stats.Username, stats.Name)
				cmd.Printf("target calories: %d kcal\n", stats.TargetCalories)
				cmd.Printf("meals logged:    %d\n", stats.MealCount)
				cmd.Printf("activities:      %d\n", stats.ActivityCount)
				cmd.Printf("vitals entries:  %d\n", stats.VitalsCount)
				if stats.HasWeight {
					cmd.Printf("latest weight:   %.1f kg\n", stats.LatestWeight)
				}
				if stats.HasAverage {
					cmd.Printf("avg daily kcal:  %.0f\n", stats.AverageCalories)
				}
				return nil
			})
		},
	})

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data from every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				return fmt.Errorf("reset wipes the entire database; re-run with --yes to confirm")
			}
			return withAccounts(cmd.Context(), func(ctx context.Context, service *accounts.Service) error {
				if err := service.Reset(ctx); err != nil {
					return err
				}
				cmd.Println("database reset")
				return nil
			})
		},
	}
	resetCmd.Flags().Bool("yes", false, "Confirm reset")
	adminCmd.AddCommand(resetCmd)

	return adminCmd
}

func withAccounts(ctx context.Context, work func(context.Context, *accounts.Service) error) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.Open(appConfig.DatabasePath, appConfig.DatabaseDSN, logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	service, err := accounts.NewService(accounts.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	return work(ctx, service)
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close() //nolint:errcheck
	}
}
