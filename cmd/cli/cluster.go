package main

import (
	"c3-policy-manager/internal/cluster"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	clusterAccount    string
	clusterNoDefaults bool
)

type clusterDescription struct {
	Name     string            `yaml:"name"`
	DC       string            `yaml:"dc,omitempty"`
	HVM      bool              `yaml:"hvm"`
	Settings cluster.Settings  `yaml:"settings"`
	Tags     map[string]string `yaml:"tags,omitempty"`
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Inspect cluster configuration files",
}

func init() {
	var showCmd = &cobra.Command{
		Use:   "show cluster-file",
		Short: "Print the resolved settings of a cluster configuration file as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			load := cluster.Load
			if clusterNoDefaults {
				load = cluster.LoadWithoutDefaults
			}
			c, err := load(args[0], clusterAccount)
			if err != nil {
				return err
			}
			description := clusterDescription{
				Name:     c.Name(),
				HVM:      c.HVM(),
				Settings: c.Settings(),
				Tags:     c.Tagset(),
			}
			if dc, err := c.DC(); err == nil {
				description.DC = dc
			}

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(description); err != nil {
				return fmt.Errorf("error encoding cluster %q: %w", c.Name(), err)
			}
			return encoder.Close()
		},
	}
	showCmd.Flags().StringVar(&clusterAccount, "account", "", "Override the account of the cluster file")
	showCmd.Flags().BoolVar(&clusterNoDefaults, "no-defaults", false, "Only show the keys set in the file")

	rootCmd.AddCommand(clusterCmd)
	clusterCmd.AddCommand(showCmd)
}
