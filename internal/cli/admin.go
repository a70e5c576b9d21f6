package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/bookstore/internal/repository"
	"github.com/iliyamo/bookstore/internal/service"
)

// NewCreateAdminCommand bootstraps an administrador account.  Registration
// over HTTP only ever creates clientes.
func NewCreateAdminCommand(opts *RootOptions) *cobra.Command {
	var in service.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrador account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.log.Sync() //nolint:errcheck

			db, _, err := opts.openDB(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer db.Close()

			auth := service.NewAuthService(repository.NewStore(db), authConfig(e))
			u, err := auth.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created administrador %d <%s>\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
