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

// Package bundle distributes bucket policy documents as an OPA bundle.
//
// The bundle carries one rego module evaluating the documents and the documents themselves as
// data, keyed by bucket name under data.c3.policies. The manifest metadata lists the buckets.
package bundle

import (
	"c3-policy-manager/internal/generator"
	"c3-policy-manager/internal/policy"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/v1/ast"
	opabundle "github.com/open-policy-agent/opa/v1/bundle"
	"github.com/open-policy-agent/opa/v1/compile"
)

const (
	rootName           = "c3"
	policiesKey        = "policies"
	modulePath         = "/c3/policy.rego"
	metadataBucketsKey = "buckets"
)

var ErrBucketNotFound = errors.New("bucket not found in bundle")

// Bundle is a set of bucket policy documents ready to be served to OPA.
type Bundle struct {
	bundle  *opabundle.Bundle
	buckets []string
}

// New creates a bundle without any bucket.
func New() (*Bundle, error) {
	source, err := generator.GenerateModule(generator.DefaultModuleOptions)
	if err != nil {
		return nil, err
	}
	modules, err := compileModules(map[string]string{modulePath: source})
	if err != nil {
		return nil, err
	}

	manifest := opabundle.Manifest{}
	manifest.Init()
	manifest.Metadata = map[string]any{metadataBucketsKey: []string{}}
	manifest.Roots = &[]string{rootName}

	b := &Bundle{
		bundle: &opabundle.Bundle{
			Manifest: manifest,
			Modules: []opabundle.ModuleFile{{
				URL:    modulePath,
				Path:   modulePath,
				Raw:    []byte(source),
				Parsed: modules[modulePath],
			}},
			Data: map[string]any{
				rootName: map[string]any{policiesKey: map[string]any{}},
			},
		},
		buckets: []string{},
	}
	if err := b.build(context.Background()); err != nil {
		return nil, err
	}
	return b, nil
}

// NewFromArchive loads a bundle from a reader of a tar.gz file
func NewFromArchive(reader io.Reader) (*Bundle, error) {
	loader := opabundle.NewTarballLoader(reader)
	bundleReader := opabundle.NewCustomReader(loader)
	bundle, err := bundleReader.Read()
	if err != nil {
		return nil, fmt.Errorf("impossible to read bundle from tarball archive: %w", err)
	}

	if bundle.Manifest.Metadata == nil || bundle.Manifest.Metadata[metadataBucketsKey] == nil {
		return nil, fmt.Errorf("bundle manifest metadata does not contain '%s' key", metadataBucketsKey)
	}
	array, ok := bundle.Manifest.Metadata[metadataBucketsKey].([]any)
	if !ok {
		return nil, fmt.Errorf("invalid bucket list in bundle manifest metadata: %v", bundle.Manifest.Metadata[metadataBucketsKey])
	}
	buckets := make([]string, 0, len(array))
	for _, v := range array {
		if bucket, ok := v.(string); ok {
			buckets = append(buckets, bucket)
		} else {
			return nil, fmt.Errorf("invalid bucket name in bundle manifest metadata: %v", v)
		}
	}
	if bundle.Data == nil {
		bundle.Data = map[string]any{}
	}
	if _, ok := bundle.Data[rootName]; !ok {
		bundle.Data[rootName] = map[string]any{policiesKey: map[string]any{}}
	}

	return &Bundle{
		bundle:  &bundle,
		buckets: buckets,
	}, nil
}

// Write serialises the bundle as a tar.gz archive.
func (b *Bundle) Write(w io.Writer) error {
	return opabundle.NewWriter(w).Write(*b.bundle)
}

func (b *Bundle) policies() map[string]any {
	root, _ := b.bundle.Data[rootName].(map[string]any)
	if root == nil {
		root = map[string]any{}
		b.bundle.Data[rootName] = root
	}
	policies, _ := root[policiesKey].(map[string]any)
	if policies == nil {
		policies = map[string]any{}
		root[policiesKey] = policies
	}
	return policies
}

// AddBucket adds or replaces the policy document of a bucket.
func (b *Bundle) AddBucket(bucket string, document *policy.Document) error {
	if bucket == "" {
		return fmt.Errorf("bucket name is required")
	}
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode policy of %s: %w", bucket, err)
	}
	var value map[string]any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to encode policy of %s: %w", bucket, err)
	}

	b.policies()[bucket] = value
	if !slices.Contains(b.buckets, bucket) {
		b.buckets = append(b.buckets, bucket)
		slices.Sort(b.buckets)
	}
	if err := b.build(context.Background()); err != nil {
		return fmt.Errorf("failed to build bundle after adding bucket %s: %w", bucket, err)
	}
	return nil
}

// RemoveBucket drops the policy document of a bucket.
func (b *Bundle) RemoveBucket(bucket string) error {
	index := slices.Index(b.buckets, bucket)
	if index == -1 {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	b.buckets = slices.Delete(b.buckets, index, index+1)
	delete(b.policies(), bucket)
	if err := b.build(context.Background()); err != nil {
		return fmt.Errorf("failed to build bundle after removing bucket %s: %w", bucket, err)
	}
	return nil
}

// Describe returns the buckets of the bundle, sorted by name.
func (b *Bundle) Describe() []string {
	return slices.Clone(b.buckets)
}

// Revision returns the manifest revision, renewed on every change.
func (b *Bundle) Revision() string {
	return b.bundle.Manifest.Revision
}

// Policy returns the document stored for a bucket.
func (b *Bundle) Policy(bucket string) (*policy.Document, error) {
	value, ok := b.policies()[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return policy.ParseDocument(data)
}

// build refreshes the manifest and recompiles the bundle.
func (b *Bundle) build(ctx context.Context) error {
	b.bundle.Manifest.Revision = uuid.NewString()
	b.bundle.Manifest.Metadata[metadataBucketsKey] = slices.Clone(b.buckets)

	compiler := compile.New()
	compiler.WithBundle(b.bundle)
	if err := compiler.Build(ctx); err != nil {
		return err
	}
	b.bundle = compiler.Bundle()
	return nil
}

func compileModules(files map[string]string) (map[string]*ast.Module, error) {
	modules := make(map[string]*ast.Module)
	for path, content := range files {
		module, err := ast.ParseModule(path, content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		modules[path] = module
	}
	compiler := ast.NewCompiler()
	compiler.Compile(modules)
	if compiler.Failed() {
		return nil, fmt.Errorf("failed to compile modules: %v", compiler.Errors)
	}
	return modules, nil
}
