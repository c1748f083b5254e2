package main

import (
	"c3-policy-manager/internal/bucket"
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/generator"
	"c3-policy-manager/internal/policy"
	"c3-policy-manager/internal/policy/parser"
	"c3-policy-manager/internal/usecases"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	policyAccount string
	publishRegion string
	publishTags   []string
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Generate bucket policies from rule files",
}

func init() {
	var entriesCmd = &cobra.Command{
		Use:   "entries rule-file cluster",
		Short: "Print the policy entries of a rule file for a cluster",
		Long: `Print the policy entries of a rule file for a cluster, one per line, in the form
Effect|Actions|cluster|account|resource|condition.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := currentAccount(policyAccount)
			if err != nil {
				return err
			}
			rules, err := parser.ReadRuleFile(args[0])
			if err != nil {
				return err
			}
			entries, err := generator.GenerateS3Entries(rules, args[1], account)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), entry)
			}
			return nil
		},
	}

	var statementCmd = &cobra.Command{
		Use:   "statement account role resource actions effect condition",
		Short: "Print a single policy statement",
		Long: `Print a single policy statement.
The condition is either "empty" or a clause operator,key,value, where the value can be a
reserved network token such as **PUBLIC**.`,
		Args: cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			statement, err := policy.MakeStatement(args[0], args[1], args[2], args[3], args[4], args[5])
			if err != nil {
				return err
			}
			data, err := policy.NewDocument(statement).JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), data)
			return nil
		},
	}

	var documentCmd = &cobra.Command{
		Use:   "document rule-file cluster",
		Short: "Print the policy document of a rule file for a cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := currentAccount(policyAccount)
			if err != nil {
				return err
			}
			rules, err := parser.ReadRuleFile(args[0])
			if err != nil {
				return err
			}
			document, err := generator.GenerateDocument(rules, args[1], account)
			if err != nil {
				return err
			}
			data, err := document.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), data)
			return nil
		},
	}

	var publishCmd = &cobra.Command{
		Use:   "publish rule-file cluster bucket",
		Short: "Generate the policy document of a rule file and upload it to a bucket",
		Long: `Generate the policy document of a rule file and upload it to a bucket.
The bucket is created when missing. The storage backend is selected by C3_BACKEND (minio or s3).`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := currentAccount(policyAccount)
			if err != nil {
				return err
			}
			tags, err := parseTags(publishTags)
			if err != nil {
				return err
			}
			conn, err := bucket.NewConnectionFromConfig(cmd.Context())
			if err != nil {
				return err
			}
			document, err := usecases.PublishBucketPolicy(cmd.Context(), conn, usecases.PublishRequest{
				RuleFile: args[0],
				Cluster:  args[1],
				Account:  account,
				Bucket:   args[2],
				Region:   publishRegion,
				Tags:     tags,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Policy with %d statements published to bucket %q\n", len(document.Statement), args[2])
			return nil
		},
	}
	publishCmd.Flags().StringVar(&publishRegion, "region", config.Region, "Region of the bucket")
	publishCmd.Flags().StringSliceVar(&publishTags, "tag", nil, "Tag to set on the bucket, as key=value (repeatable)")

	policyCmd.PersistentFlags().StringVar(&policyAccount, "account", "", "Account name (default: alias of AWS_ACCOUNT_ID)")

	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(entriesCmd, statementCmd, documentCmd, publishCmd)
}
