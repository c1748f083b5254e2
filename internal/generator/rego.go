package generator

import (
	"bytes"
	"fmt"
	"text/template"
)

// ModuleOptions selects where the generated module lives and where it reads the policies from.
type ModuleOptions struct {
	// Package of the module, for instance "c3".
	Package string
	// DataPath is the dotted path under data holding the policy documents keyed by bucket.
	DataPath string
}

var DefaultModuleOptions = ModuleOptions{
	Package:  "c3",
	DataPath: "c3.policies",
}

// The module answers allow for an input such as
//
//	{"bucket": "mybucket", "action": "s3:GetObject", "resource": "mybucket/foo",
//	 "principal": "arn:aws:iam::123456789012:root", "context": {"aws:SourceIp": "10.0.0.1"}}
//
// A matching Deny statement always wins over a matching Allow.
const moduleTemplate = `package {{.Package}}

import rego.v1

policy := data.{{.DataPath}}[input.bucket]

default allow := false

allow if {
	some statement in matching
	statement.Effect == "Allow"
	not denied
}

denied if {
	some statement in matching
	statement.Effect == "Deny"
}

matching contains statement if {
	some statement in policy.Statement
	action_matches(statement)
	resource_matches(statement)
	principal_matches(statement)
	condition_matches(statement)
}

action_matches(statement) if {
	some action in statement.Action
	glob.match(lower(action), null, lower(input.action))
}

resource_matches(statement) if {
	some resource in statement.Resource
	glob.match(resource, null, concat("", ["arn:aws:s3:::", input.resource]))
}

principal_matches(statement) if statement.Principal.AWS == "*"

principal_matches(statement) if input.principal in statement.Principal.AWS

condition_matches(statement) if not statement.Condition

condition_matches(statement) if {
	statement.Condition
	every operator, clause in statement.Condition {
		condition_holds(operator, clause)
	}
}

condition_holds("IpAddress", clause) if {
	every key, cidr in clause {
		net.cidr_contains(cidr, input.context[key])
	}
}

condition_holds("NotIpAddress", clause) if {
	every key, cidr in clause {
		not net.cidr_contains(cidr, input.context[key])
	}
}

condition_holds("StringEquals", clause) if {
	every key, value in clause {
		input.context[key] == value
	}
}

condition_holds("StringLike", clause) if {
	every key, value in clause {
		glob.match(value, null, input.context[key])
	}
}
`

var module = template.Must(template.New("module").Parse(moduleTemplate))

// GenerateModule renders the rego module evaluating bucket policy documents.
func GenerateModule(options ModuleOptions) (string, error) {
	if options.Package == "" || options.DataPath == "" {
		return "", fmt.Errorf("package and data path are required, got %+v", options)
	}
	buffer := &bytes.Buffer{}
	if err := module.Execute(buffer, options); err != nil {
		return "", fmt.Errorf("failed to execute template: %v", err)
	}
	return buffer.String(), nil
}
