// Copyright 2025 Matteo Brambilla - TEADAL
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"c3-policy-manager/internal/generator"
	"c3-policy-manager/internal/policy/parser"
	"c3-policy-manager/internal/usecases"
	"errors"

	"github.com/spf13/cobra"
)

var (
	bundleDsn     string
	bundleAccount string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Manage the bucket policies distributed in the OPA bundle",
}

func init() {
	var addBucketCmd = &cobra.Command{
		Use:   "add bucket-name rule-file cluster",
		Short: "Add or update the policy of a bucket in the OPA bundle",
		Long:  "Add or update the policy of a bucket in the OPA bundle.\n" + defaultDsnUsage,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepository(bundleDsn)
			if err != nil {
				return err
			}
			account, err := currentAccount(bundleAccount)
			if err != nil {
				return err
			}
			bucketName, ruleFile, cluster := args[0], args[1], args[2]

			rules, err := parser.ReadRuleFile(ruleFile)
			if err != nil {
				return err
			}
			document, err := generator.GenerateDocument(rules, cluster, account)
			if err != nil {
				return err
			}
			if err := usecases.AddBucketToBundle(cmd.Context(), repo, bucketName, document); err != nil {
				return err
			}
			cmd.Printf("Bucket %q added/updated in bundle\n", bucketName)
			return nil
		},
	}
	addBucketCmd.Flags().StringVar(&bundleAccount, "account", "", "Account name (default: alias of AWS_ACCOUNT_ID)")

	var removeBucketCmd = &cobra.Command{
		Use:   "remove bucket-name",
		Short: "Remove the policy of a bucket from the OPA bundle",
		Long:  "Remove the policy of a bucket from the OPA bundle.\n" + defaultDsnUsage,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepository(bundleDsn)
			if err != nil {
				return err
			}
			if err := usecases.RemoveBucketFromBundle(cmd.Context(), repo, args[0]); err != nil {
				return err
			}
			cmd.Printf("Bucket %q removed from bundle\n", args[0])
			return nil
		},
	}

	var describeCmd = &cobra.Command{
		Use:   "describe",
		Short: "Describe the latest OPA bundle",
		Long:  "Describe the latest OPA bundle.\n" + defaultDsnUsage,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepository(bundleDsn)
			if err != nil {
				return err
			}
			description, err := usecases.DescribeBundle(cmd.Context(), repo)
			if err != nil {
				return err
			}
			cmd.Printf("Bundle %q:\n", description.Name)
			cmd.Printf("  Revision: %s\n", description.Revision)
			cmd.Printf("  Buckets: %v\n", description.Buckets)
			return nil
		},
	}

	var testCmd = &cobra.Command{
		Use:   "test path...",
		Short: "Run rego tests against the latest OPA bundle",
		Long: `Run rego tests against the latest OPA bundle.
Paths are rego files or directories searched for *_test.rego files.
` + defaultDsnUsage,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := getRepository(bundleDsn)
			if err != nil {
				return err
			}
			tests, err := loadRegoTests(args)
			if err != nil {
				return err
			}
			results, err := usecases.RunBundleTests(cmd.Context(), repo, tests)
			if err != nil && !errors.Is(err, usecases.ErrTestsFailed) {
				return err
			}
			for _, result := range results {
				status := "PASS"
				if !result.Passed {
					status = "FAIL"
				}
				cmd.Printf("%s: %s\n", result.Name, status)
			}
			return err
		},
	}

	bundleCmd.PersistentFlags().StringVar(&bundleDsn, "dsn", "", "Location of the bundles")

	rootCmd.AddCommand(bundleCmd)
	bundleCmd.AddCommand(addBucketCmd, removeBucketCmd, describeCmd, testCmd)
}
