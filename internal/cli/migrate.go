package cli

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/bookstore/internal/database"
)

// NewMigrateCommand applies the embedded schema.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.log.Sync() //nolint:errcheck

			db, dialect, err := opts.openDB(cmd.Context(), e)
			if err != nil {
				return err
			}
			defer db.Close()
			if dialect == database.SQLite {
				// already applied by openDB
				return nil
			}
			return database.Migrate(cmd.Context(), db, dialect, e.log)
		},
	}
}
