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

// Package generator turns rule files into bucket policy statements and the rego modules
// that evaluate them.
//
// An entry summarises a generated statement on a single pipe delimited line:
//
//	Effect|Action|cluster|account|resource|condition
package generator

import (
	"c3-policy-manager/internal/policy"
	"c3-policy-manager/internal/policy/parser"
	"fmt"
	"log/slog"
	"strings"
)

const entrySeparator = "|"

// FormatEntry serialises a rule as a single entry line.
func FormatEntry(rule parser.Rule, cluster, account string) string {
	return strings.Join([]string{
		rule.Effect,
		rule.ActionList(),
		cluster,
		account,
		rule.Resource,
		rule.Condition,
	}, entrySeparator)
}

// applicableRules decodes the rules of the file in section order and keeps those in scope
// for the cluster and account. Any malformed section aborts the whole pass.
func applicableRules(rules *parser.RuleFile, cluster, account string) ([]parser.Rule, error) {
	if rules == nil {
		return nil, fmt.Errorf("%w: no rule file loaded", parser.ErrConfigNotFound)
	}
	all, err := rules.Rules()
	if err != nil {
		return nil, err
	}
	result := make([]parser.Rule, 0, len(all))
	for _, rule := range all {
		if !rule.AppliesTo(cluster, account) {
			slog.Debug("Skipping out of scope rule", "section", rule.Section, "cluster", cluster, "account", account)
			continue
		}
		result = append(result, rule)
	}
	return result, nil
}

func makeStatement(rule parser.Rule, account string) (*policy.Statement, error) {
	statement, err := policy.MakeStatement(account, rule.Principal, rule.Resource, rule.ActionList(), rule.Effect, rule.Condition)
	if err != nil {
		return nil, fmt.Errorf("section [%s]: %w", rule.Section, err)
	}
	return statement, nil
}

// GenerateS3Entries returns one entry per applicable rule, in the order of the file sections.
// Every entry is backed by a statement that assembles successfully; the first failure is
// returned without any partial result.
func GenerateS3Entries(rules *parser.RuleFile, cluster, account string) ([]string, error) {
	applicable, err := applicableRules(rules, cluster, account)
	if err != nil {
		return nil, err
	}
	entries := make([]string, 0, len(applicable))
	for _, rule := range applicable {
		if _, err := makeStatement(rule, account); err != nil {
			return nil, err
		}
		entries = append(entries, FormatEntry(rule, cluster, account))
	}
	return entries, nil
}

// GenerateStatements returns the statements of the applicable rules, in section order.
func GenerateStatements(rules *parser.RuleFile, cluster, account string) ([]*policy.Statement, error) {
	applicable, err := applicableRules(rules, cluster, account)
	if err != nil {
		return nil, err
	}
	statements := make([]*policy.Statement, 0, len(applicable))
	for _, rule := range applicable {
		statement, err := makeStatement(rule, account)
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}
	return statements, nil
}

// GenerateDocument wraps the generated statements in a policy document ready for upload.
func GenerateDocument(rules *parser.RuleFile, cluster, account string) (*policy.Document, error) {
	statements, err := GenerateStatements(rules, cluster, account)
	if err != nil {
		return nil, err
	}
	return policy.NewDocument(statements...), nil
}
