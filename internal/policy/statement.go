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

// Package policy builds S3 bucket policy statements.
//
// A statement grants or denies a list of actions on a single resource to a principal,
// optionally restricted by a condition:
//
//	{
//	  "Action": ["s3:PutObject"],
//	  "Resource": ["arn:aws:s3:::cgm-cloudtrail/*"],
//	  "Effect": "Allow",
//	  "Principal": {"AWS": ["arn:aws:iam::086441151436:root"]},
//	  "Condition": {"StringEquals": {"s3:x-amz-acl": "bucket-owner-full-control"}}
//	}
package policy

import (
	"fmt"
	"strings"
)

type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

const s3ARNPrefix = "arn:aws:s3:::"

type Statement struct {
	Action    []string  `json:"Action"`
	Resource  []string  `json:"Resource"`
	Effect    Effect    `json:"Effect"`
	Principal Principal `json:"Principal"`
	Condition Condition `json:"Condition,omitempty"`
}

// ParseEffect validates an effect string.
func ParseEffect(effect string) (Effect, error) {
	switch Effect(effect) {
	case EffectAllow, EffectDeny:
		return Effect(effect), nil
	}
	return "", fmt.Errorf("%w: %q, expected %q or %q", ErrInvalidEffect, effect, EffectAllow, EffectDeny)
}

// SplitActions splits a comma joined action list, dropping blank items.
func SplitActions(actions string) []string {
	result := make([]string, 0)
	for _, action := range strings.Split(actions, ",") {
		if action = strings.TrimSpace(action); action != "" {
			result = append(result, action)
		}
	}
	return result
}

// ResourceARN returns the S3 ARN of a bucket path such as "mybucket/logs/*".
func ResourceARN(resource string) string {
	return s3ARNPrefix + resource
}

// MakeStatement assembles a statement for the principal identified by account and role.
// The actions argument is a comma joined list. The clause is either [EmptyClause] or
// a condition accepted by [BuildCondition]; a malformed clause is returned as error.
func MakeStatement(account, role, resource, actions, effect, clause string) (*Statement, error) {
	actionList := SplitActions(actions)
	if len(actionList) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyActionList, actions)
	}
	parsedEffect, err := ParseEffect(effect)
	if err != nil {
		return nil, err
	}

	statement := &Statement{
		Action:    actionList,
		Resource:  []string{ResourceARN(resource)},
		Effect:    parsedEffect,
		Principal: ResolvePrincipal(account, role),
	}
	if clause != EmptyClause {
		condition, err := BuildCondition(clause)
		if err != nil {
			return nil, fmt.Errorf("statement on %s: %w", resource, err)
		}
		statement.Condition = condition
	}
	return statement, nil
}
