// Package parser reads the INI rule files that drive the generation of bucket policy statements.
//
// Every section of a rule file is named after the comma separated list of actions it covers,
// and describes the resource and the way the actions are granted:
//
//	[s3:get*,s3:list*]
//	effect = Allow                                        ; Allow or Deny, defaults to Deny
//	resource = mybucket/*                                 ; required, bucket path
//	condition = IpAddress,aws:SourceIp,216.1.187.128/27   ; defaults to empty
//	principal = user                                      ; root, user, cidr-networks... defaults to root
//	clusters = devzzz                                     ; optional, restrict the rule to some clusters
//	accounts = opsqa                                      ; optional, restrict the rule to some accounts
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

var (
	ErrConfigNotFound    = errors.New("config not found")
	ErrMalformedRuleFile = errors.New("malformed rule file")
	ErrMalformedSection  = errors.New("malformed section")
)

const (
	KeyEffect    = "effect"
	KeyResource  = "resource"
	KeyCondition = "condition"
	KeyPrincipal = "principal"
	KeyClusters  = "clusters"
	KeyAccounts  = "accounts"

	DefaultEffect    = "Deny"
	DefaultCondition = "empty"
	DefaultPrincipal = "root"
)

// RuleFile is a loaded rule file. Sections keep the order of the file.
type RuleFile struct {
	Path string
	file *ini.File
}

// Only " ;" and " #" start an inline comment, so values may contain ";" and "#".
// Keys are case insensitive, section names keep their case.
var loadOptions = ini.LoadOptions{
	KeyValueDelimiters:       "=",
	SpaceBeforeInlineComment: true,
	InsensitiveKeys:          true,
}

var knownKeys = []string{KeyEffect, KeyResource, KeyCondition, KeyPrincipal, KeyClusters, KeyAccounts}

// ReadRuleFile loads the rule file at path.
// A missing or unreadable file is reported as [ErrConfigNotFound], a file that is not valid INI as [ErrMalformedRuleFile].
func ReadRuleFile(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigNotFound, path, err)
	}
	rules, err := ParseRuleFile(data)
	if err != nil {
		return nil, err
	}
	rules.Path = path
	return rules, nil
}

// ParseRuleFile parses the content of a rule file.
func ParseRuleFile(data []byte) (*RuleFile, error) {
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRuleFile, err)
	}
	if len(file.Section(ini.DefaultSection).Keys()) > 0 {
		return nil, fmt.Errorf("%w: keys outside of any section", ErrMalformedRuleFile)
	}
	return &RuleFile{file: file}, nil
}

// Sections returns the section names in file order.
func (r *RuleFile) Sections() []string {
	names := r.file.SectionStrings()
	return slices.DeleteFunc(names, func(name string) bool {
		return name == ini.DefaultSection
	})
}

// Section returns the key/value pairs of a section, nil if the section does not exist.
func (r *RuleFile) Section(name string) map[string]string {
	section, err := r.file.GetSection(name)
	if err != nil {
		return nil
	}
	return section.KeysHash()
}

// Rule is the decoded content of a single section.
type Rule struct {
	Section   string   `json:"section"`
	Actions   []string `json:"actions"`
	Resource  string   `json:"resource"`
	Effect    string   `json:"effect"`
	Condition string   `json:"condition"`
	Principal string   `json:"principal"`
	Clusters  []string `json:"clusters,omitempty"`
	Accounts  []string `json:"accounts,omitempty"`
}

// AppliesTo reports whether the rule is in scope for the cluster and account.
func (r Rule) AppliesTo(cluster, account string) bool {
	if len(r.Clusters) > 0 && !slices.Contains(r.Clusters, cluster) {
		return false
	}
	if len(r.Accounts) > 0 && !slices.Contains(r.Accounts, account) {
		return false
	}
	return true
}

// ActionList returns the actions joined as in the section name.
func (r Rule) ActionList() string {
	return strings.Join(r.Actions, ",")
}

func splitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// ParseRule decomposes a section into a [Rule]. Every action of the section name must be
// in the form service:action and the resource key is mandatory. Unknown keys are logged and ignored.
func ParseRule(section string, values map[string]string) (Rule, error) {
	actions := splitList(section)
	if len(actions) == 0 {
		return Rule{}, fmt.Errorf("%w: [%s] has no actions", ErrMalformedSection, section)
	}
	for _, action := range actions {
		service, name, found := strings.Cut(action, ":")
		if !found || service == "" || name == "" {
			return Rule{}, fmt.Errorf("%w: [%s] action %q is not in the form service:action", ErrMalformedSection, section, action)
		}
	}
	for key := range values {
		if !slices.Contains(knownKeys, key) {
			slog.Warn("Ignoring unknown key in rule section", "section", section, "key", key)
		}
	}
	resource := strings.TrimSpace(values[KeyResource])
	if resource == "" {
		return Rule{}, fmt.Errorf("%w: [%s] has no %s", ErrMalformedSection, section, KeyResource)
	}

	rule := Rule{
		Section:   section,
		Actions:   actions,
		Resource:  resource,
		Effect:    DefaultEffect,
		Condition: DefaultCondition,
		Principal: DefaultPrincipal,
		Clusters:  splitList(values[KeyClusters]),
		Accounts:  splitList(values[KeyAccounts]),
	}
	if v := strings.TrimSpace(values[KeyEffect]); v != "" {
		rule.Effect = v
	}
	if v := strings.TrimSpace(values[KeyCondition]); v != "" {
		rule.Condition = v
	}
	if v := strings.TrimSpace(values[KeyPrincipal]); v != "" {
		rule.Principal = v
	}
	return rule, nil
}

// RuleFileError collects every malformed section of a rule file.
type RuleFileError struct {
	errors []error
}

func (e *RuleFileError) Error() string {
	if len(e.errors) == 0 {
		return "no errors"
	}
	result := "errors occurred while reading rules:\n"
	for _, err := range e.errors {
		result += fmt.Sprintf("- %v\n", err)
	}
	return result
}

func (e *RuleFileError) Unwrap() []error {
	return e.errors
}

// Rules decodes every section of the file, in order. All the malformed sections are
// reported together in a [RuleFileError].
func (r *RuleFile) Rules() ([]Rule, error) {
	var errs []error
	rules := make([]Rule, 0)
	for _, name := range r.Sections() {
		rule, err := ParseRule(name, r.Section(name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, rule)
	}
	if len(errs) > 0 {
		return nil, &RuleFileError{errors: errs}
	}
	return rules, nil
}
