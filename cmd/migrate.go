package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wazecore/wazecore/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "run pending schema migrations to head and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		st, err := store.Open(cfg.Database.URL)
		if err != nil {
			logrus.WithError(err).Fatal("open store")
		}
		defer st.Close()

		if err := st.Migrate(context.Background()); err != nil {
			logrus.WithError(err).Fatal("migrate store")
		}
		logrus.Info("migrations applied")
	},
}
