package main

import (
	"c3-policy-manager/internal/accounts"
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/naming"
	"fmt"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Translate account ids and aliases",
	Long: `Translate account ids and aliases using the account_aliases_map.txt file found in AWS_CONF_DIR.
The current account is read from AWS_ACCOUNT_ID.`,
}

func init() {
	var nameCmd = &cobra.Command{
		Use:   "name [account-id]",
		Short: "Print the alias of an account id, the current account by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				name string
				err  error
			)
			if len(args) == 0 {
				name, err = accounts.AccountName(config.AccountMapFile())
			} else {
				name, err = accounts.TranslateAccount(args[0], config.AccountMapFile())
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	var idCmd = &cobra.Command{
		Use:   "id [account-name]",
		Short: "Print the id of an account alias, the current account by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			id, err := accounts.AccountID(name, config.AccountMapFile())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	var loggingBucketCmd = &cobra.Command{
		Use:   "logging-bucket [account-id]",
		Short: "Print the name of the access logging bucket of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := config.AccountID
			if len(args) > 0 {
				id = args[0]
			}
			name, err := naming.LoggingBucketName(id, config.AccountMapFile())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(nameCmd, idCmd, loggingBucketCmd)
}
