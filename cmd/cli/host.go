package main

import (
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/naming"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

const dnsTimeout = 2 * time.Second

var (
	hostAccount string
	hostRegion  string
	hostDomain  string
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Generate cluster host names",
}

func init() {
	var dcCmd = &cobra.Command{
		Use:   "dc [region]",
		Short: "Print the datacenter prefix of a region",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region := hostRegion
			if len(args) > 0 {
				region = args[0]
			}
			dc, err := naming.AWSDC(region)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dc)
			return nil
		},
	}

	var nameCmd = &cobra.Command{
		Use:   "name cluster index",
		Short: "Print the host name of the index-th node of a cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			account, err := currentAccount(hostAccount)
			if err != nil {
				return err
			}
			hostname, err := naming.GenHostname(args[0], index, account, hostRegion, hostDomain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hostname)
			return nil
		},
	}

	var availableCmd = &cobra.Command{
		Use:   "available cluster count",
		Short: "Print the first host names of a cluster not yet registered in DNS",
		Long: `Print the first host names of a cluster not yet registered in DNS.
Names are checked against the nameserver configured by C3_NAMESERVER.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[1])
			if err != nil || count < 1 {
				return fmt.Errorf("invalid count %q", args[1])
			}
			account, err := currentAccount(hostAccount)
			if err != nil {
				return err
			}
			resolver := naming.NewDNSResolver(config.Nameserver, dnsTimeout)
			hosts, err := naming.FindAvailableHostnames(cmd.Context(), resolver, args[0], count, account, hostRegion, hostDomain)
			if err != nil {
				return err
			}
			for _, host := range hosts {
				fmt.Fprintln(cmd.OutOrStdout(), host)
			}
			return nil
		},
	}

	hostCmd.PersistentFlags().StringVar(&hostAccount, "account", "", "Account name (default: alias of AWS_ACCOUNT_ID)")
	hostCmd.PersistentFlags().StringVar(&hostRegion, "region", config.Region, "Region of the cluster")
	hostCmd.PersistentFlags().StringVar(&hostDomain, "domain", config.Domain, "Domain of the host names")

	rootCmd.AddCommand(hostCmd)
	hostCmd.AddCommand(dcCmd, nameCmd, availableCmd)
}
