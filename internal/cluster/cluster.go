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

// Package cluster reads the INI files describing a cluster of instances.
//
// A cluster file has a [cluster] section with the instance settings and a [tags] section with
// the cost tags applied to every resource of the cluster:
//
//	[cluster]
//	server_class = pro
//	count = 1
//	azs = us-east-1a,us-east-1b
//	size = t2.micro
//	account = opsqa
//
//	[tags]
//	Team = Operations
package cluster

import (
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/naming"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	clusterSection = "cluster"
	tagsSection    = "tags"
)

var azPattern = regexp.MustCompile(`^[a-z]{2}-[a-z]+-[0-9][a-z]$`)

var hvmInstances = []string{
	"cc2.8xlarge",
	"i2.xlarge",
	"i2.2xlarge",
	"i2.4xlarge",
	"i2.8xlarge",
	"r3.large",
	"r3.xlarge",
	"r3.2xlarge",
	"r3.4xlarge",
	"r3.8xlarge",
	"t2.micro",
	"t2.small",
	"t2.medium",
}

// HVMInstances returns the instance sizes that require an HVM image.
func HVMInstances() []string {
	return slices.Clone(hvmInstances)
}

// VerifyAZ reports whether az looks like an availability zone, for instance us-east-1a.
func VerifyAZ(az string) bool {
	return azPattern.MatchString(az)
}

// Settings is the content of the [cluster] section.
type Settings struct {
	ServerClass     string   `ini:"server_class" yaml:"server_class"`
	PrimarySG       string   `ini:"primary_sg" yaml:"primary_sg,omitempty"`
	AdditionalSGs   []string `ini:"additional_sgs" delim:"," yaml:"additional_sgs,omitempty"`
	Count           int      `ini:"count" yaml:"count"`
	AZs             []string `ini:"azs" delim:"," yaml:"azs"`
	Size            string   `ini:"size" yaml:"size"`
	AMI             string   `ini:"ami" yaml:"ami,omitempty"`
	Region          string   `ini:"region" yaml:"region"`
	Domain          string   `ini:"domain" yaml:"domain"`
	AllocateEIPs    bool     `ini:"allocate_eips" yaml:"allocate_eips"`
	UseEBSOptimized bool     `ini:"use_ebs_optimized" yaml:"use_ebs_optimized"`
	NodeGroups      []string `ini:"node_groups" delim:"," yaml:"node_groups,omitempty"`
	LaunchTimeout   int      `ini:"launch_timeout" yaml:"launch_timeout"`
	SleepStep       int      `ini:"sleep_step" yaml:"sleep_step"`
	UserDataFile    string   `ini:"user_data_file" yaml:"user_data_file,omitempty"`
	Account         string   `ini:"account" yaml:"account,omitempty"`
}

// DefaultSettings are used for the keys missing from a cluster file.
func DefaultSettings() Settings {
	return Settings{
		Count:         1,
		Size:          "t2.micro",
		Region:        config.Region,
		Domain:        config.Domain,
		NodeGroups:    []string{"default_install"},
		LaunchTimeout: 180,
		SleepStep:     10,
	}
}

// Config is a loaded cluster file. Setters only change the in-memory copy.
type Config struct {
	path     string
	confDir  string
	settings Settings
	tags     map[string]string
}

// Load reads a cluster file. A non empty account overrides the one of the file.
func Load(path, account string) (*Config, error) {
	return load(path, account, DefaultSettings())
}

// LoadWithoutDefaults reads a cluster file leaving the missing keys empty.
func LoadWithoutDefaults(path, account string) (*Config, error) {
	return load(path, account, Settings{})
}

func load(path, account string, settings Settings) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigNotFoundError{Path: path}
	}
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("malformed cluster file %s: %w", path, err)
	}
	if err := file.Section(clusterSection).MapTo(&settings); err != nil {
		return nil, fmt.Errorf("malformed [%s] section in %s: %w", clusterSection, path, err)
	}
	if account != "" {
		settings.Account = account
	}
	for _, az := range settings.AZs {
		if !VerifyAZ(az) {
			return nil, &InvalidAZError{AZ: az}
		}
	}

	return &Config{
		path:     path,
		confDir:  config.ConfDir,
		settings: settings,
		tags:     file.Section(tagsSection).KeysHash(),
	}, nil
}

// AccountFromConf returns the account of a cluster file, empty when the file cannot be read.
func AccountFromConf(path string) string {
	c, err := LoadWithoutDefaults(path, "")
	if err != nil {
		return ""
	}
	return c.settings.Account
}

// Name is the cluster name, taken from the file name (devpro.ini is the devpro cluster).
func (c *Config) Name() string {
	return strings.TrimSuffix(filepath.Base(c.path), filepath.Ext(c.path))
}

func (c *Config) Settings() Settings {
	return c.settings
}

func (c *Config) AZs() []string {
	return slices.Clone(c.settings.AZs)
}

// SetAZs replaces the availability zones with a comma separated list.
func (c *Config) SetAZs(azs string) error {
	list := make([]string, 0)
	for _, az := range strings.Split(azs, ",") {
		az = strings.TrimSpace(az)
		if !VerifyAZ(az) {
			return &InvalidAZError{AZ: az}
		}
		list = append(list, az)
	}
	c.settings.AZs = list
	return nil
}

// CountAZs returns the number of distinct availability zones.
func (c *Config) CountAZs() int {
	sorted := slices.Clone(c.settings.AZs)
	slices.Sort(sorted)
	return len(slices.Compact(sorted))
}

func (c *Config) Count() int {
	return c.settings.Count
}

func (c *Config) SetCount(count int) {
	c.settings.Count = count
}

func (c *Config) Size() string {
	return c.settings.Size
}

func (c *Config) SetSize(size string) {
	c.settings.Size = size
}

// HVM reports whether the configured size requires an HVM image.
func (c *Config) HVM() bool {
	return slices.Contains(hvmInstances, c.settings.Size)
}

func (c *Config) AMI() string {
	return c.settings.AMI
}

func (c *Config) SetAMI(ami string) {
	c.settings.AMI = ami
}

func (c *Config) Region() string {
	return c.settings.Region
}

func (c *Config) Domain() string {
	return c.settings.Domain
}

func (c *Config) Account() string {
	return c.settings.Account
}

func (c *Config) ServerClass() string {
	return c.settings.ServerClass
}

func (c *Config) PrimarySG() string {
	return c.settings.PrimarySG
}

// DC returns the datacenter code of the cluster region.
func (c *Config) DC() (string, error) {
	return naming.AWSDC(c.settings.Region)
}

// Tagset returns a copy of the [tags] section.
func (c *Config) Tagset() map[string]string {
	return maps.Clone(c.tags)
}

func (c *Config) LaunchTimeout() int {
	return c.settings.LaunchTimeout
}

func (c *Config) SleepStep() int {
	return c.settings.SleepStep
}

// UserDataFile returns the user data script path, relative paths are resolved against the configuration directory.
func (c *Config) UserDataFile() string {
	file := c.settings.UserDataFile
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.confDir, file)
}

func (c *Config) AdditionalSGs() []string {
	return slices.Clone(c.settings.AdditionalSGs)
}

func (c *Config) AddSG(sg string) {
	c.settings.AdditionalSGs = append(c.settings.AdditionalSGs, sg)
}

func (c *Config) NodeGroups() []string {
	return slices.Clone(c.settings.NodeGroups)
}

func (c *Config) AllocateEIPs() bool {
	return c.settings.AllocateEIPs
}

func (c *Config) SetAllocateEIPs() {
	c.settings.AllocateEIPs = true
}

func (c *Config) UseEBSOptimized() bool {
	return c.settings.UseEBSOptimized
}

func (c *Config) SetUseEBSOptimized() {
	c.settings.UseEBSOptimized = true
}
