package command

import (
	"errors"
	"fmt"
	"strings"

	"foodgram/database"
	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"

	"github.com/spf13/cobra"
)

var (
	roleEmail string
	roleName  string
)

var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change a user's role (user or admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := strings.ToLower(strings.TrimSpace(roleName))
		if role != models.RoleUser && role != models.RoleAdmin {
			return fmt.Errorf("invalid role %q: must be %s or %s", roleName, models.RoleUser, models.RoleAdmin)
		}

		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		users := repository.NewUserRepository(db)
		if err := users.UpdateRole(cmd.Context(), roleEmail, role); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("no user with email %s", roleEmail)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", roleEmail, role)
		return nil
	},
}

func init() {
	setRoleCmd.Flags().StringVar(&roleEmail, "email", "", "email of the user")
	setRoleCmd.Flags().StringVar(&roleName, "role", models.RoleAdmin, "role to grant: user or admin")
	_ = setRoleCmd.MarkFlagRequired("email")
}
