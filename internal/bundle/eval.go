package bundle

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	opabundle "github.com/open-policy-agent/opa/v1/bundle"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage"
	"github.com/open-policy-agent/opa/v1/storage/inmem"
	"github.com/open-policy-agent/opa/v1/tester"
)

const allowQuery = "data.c3.allow"

// Request is the input of the bundle module.
type Request struct {
	Bucket    string            `json:"bucket"`
	Action    string            `json:"action"`
	Resource  string            `json:"resource"`
	Principal string            `json:"principal"`
	Context   map[string]string `json:"context,omitempty"`
}

// Allowed evaluates the request against the bucket policies of the bundle.
func (b *Bundle) Allowed(ctx context.Context, request Request) (bool, error) {
	results, err := rego.New(
		rego.Query(allowQuery),
		rego.ParsedBundle(rootName, b.bundle),
		rego.Input(request),
	).Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %s: %w", allowQuery, err)
	}
	return results.Allowed(), nil
}

// TestResult is the outcome of a single rego test.
type TestResult struct {
	Name   string
	Passed bool
	Error  error
}

// Test runs rego test modules against the bundle. Tests maps a module path to its source.
func (b *Bundle) Test(ctx context.Context, tests map[string]string) ([]TestResult, error) {
	withTests := b.bundle.Copy()
	for path, source := range tests {
		module, err := ast.ParseModule(path, source)
		if err != nil {
			return nil, fmt.Errorf("failed to parse test module %s: %w", path, err)
		}
		withTests.Modules = append(withTests.Modules, opabundle.ModuleFile{
			URL:    path,
			Path:   path,
			Raw:    []byte(source),
			Parsed: module,
		})
	}

	store := inmem.New()
	testRunner := tester.NewRunner()
	testRunner.SetBundles(map[string]*opabundle.Bundle{
		rootName: &withTests,
	})
	testRunner.SetStore(store)
	txn := storage.NewTransactionOrDie(ctx, store, storage.WriteParams)
	defer store.Abort(ctx, txn)

	ch, err := testRunner.RunTests(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to run tests: %w", err)
	}
	var results []TestResult
	for result := range ch {
		results = append(results, TestResult{
			Name:   result.Package + "." + result.Name,
			Passed: result.Error == nil && !result.Fail,
			Error:  result.Error,
		})
	}
	return results, nil
}
