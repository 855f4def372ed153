package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wazecore/wazecore/store"
)

var (
	createUserUsername string
	createUserPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "create an operator identity for the REST surface's /auth/login",
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

		user, err := st.CreateUser(context.Background(), createUserUsername, createUserPassword)
		if err != nil {
			logrus.WithError(err).Fatal("create user")
		}
		logrus.Infof("created user %q (id=%s)", user.Username, user.ID)
	},
}

func init() {
	createUserCmd.Flags().StringVarP(&createUserUsername, "username", "u", "", "login username (required)")
	createUserCmd.Flags().StringVarP(&createUserPassword, "password", "p", "", "login password (required)")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createUserCmd)
}
