package main

import (
	"c3-policy-manager/internal/bucket"
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/policy"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var bucketRegion string

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage buckets on the configured storage backend",
	Long: `Manage buckets on the configured storage backend.
The backend is selected by C3_BACKEND: "minio" (MINIO_* variables) or "s3" (AWS credentials chain,
optional C3_S3_ENDPOINT).`,
}

func openBucket(cmd *cobra.Command, name string) (*bucket.Bucket, error) {
	conn, err := bucket.NewConnectionFromConfig(cmd.Context())
	if err != nil {
		return nil, err
	}
	return bucket.New(conn, name, bucketRegion)
}

func init() {
	var createCmd = &cobra.Command{
		Use:   "create bucket-name",
		Short: "Create a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBucket(cmd, args[0])
			if err != nil {
				return err
			}
			if err := b.Create(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("Bucket %q created in %s\n", b.Name(), b.Region())
			return nil
		},
	}

	var deleteCmd = &cobra.Command{
		Use:   "delete bucket-name",
		Short: "Delete an empty bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBucket(cmd, args[0])
			if err != nil {
				return err
			}
			if err := b.Delete(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("Bucket %q deleted\n", b.Name())
			return nil
		},
	}

	var existsCmd = &cobra.Command{
		Use:   "exists bucket-name",
		Short: "Report whether a bucket exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBucket(cmd, args[0])
			if err != nil {
				return err
			}
			found, err := b.Lookup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), found)
			return nil
		},
	}

	var policyUploadCmd = &cobra.Command{
		Use:   "policy bucket-name policy-file",
		Short: "Upload a policy document to a bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("error reading policy file %q: %w", args[1], err)
			}
			document, err := policy.ParseDocument(data)
			if err != nil {
				return err
			}
			b, err := openBucket(cmd, args[0])
			if err != nil {
				return err
			}
			if err := b.UploadDocument(cmd.Context(), document); err != nil {
				return err
			}
			cmd.Printf("Policy uploaded to bucket %q\n", b.Name())
			return nil
		},
	}

	var tagCmd = &cobra.Command{
		Use:   "tag bucket-name key=value...",
		Short: "Replace the tags of a bucket",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := parseTags(args[1:])
			if err != nil {
				return err
			}
			b, err := openBucket(cmd, args[0])
			if err != nil {
				return err
			}
			if err := b.SetTags(cmd.Context(), tags); err != nil {
				return err
			}
			cmd.Printf("%d tags set on bucket %q\n", len(tags), b.Name())
			return nil
		},
	}

	bucketCmd.PersistentFlags().StringVar(&bucketRegion, "region", config.Region, "Region of the bucket")

	rootCmd.AddCommand(bucketCmd)
	bucketCmd.AddCommand(createCmd, deleteCmd, existsCmd, policyUploadCmd, tagCmd)
}
