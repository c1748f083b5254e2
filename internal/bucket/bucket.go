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

// Package bucket manages a single storage bucket through a [Connection].
//
// Errors returned by the connection are passed through unchanged, so callers can inspect
// the SDK error types directly.
package bucket

import (
	"c3-policy-manager/internal/policy"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrUnknownRegion = errors.New("unknown region")

// locations maps a region to the location constraint used at creation time.
var locations = map[string]string{
	"us-east-1":      "",
	"us-west-1":      "us-west-1",
	"us-west-2":      "us-west-2",
	"EU":             "EU",
	"ap-northeast-1": "ap-northeast-1",
	"ap-southeast-1": "ap-southeast-1",
	"ap-southeast-2": "ap-southeast-2",
	"cn-north-1":     "cn-north-1",
	"sa-east-1":      "sa-east-1",
}

// Location returns the location constraint of a region.
func Location(region string) (string, error) {
	location, ok := locations[region]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	return location, nil
}

// Info describes an existing bucket.
type Info struct {
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	CreationDate time.Time `json:"creationDate,omitzero"`
}

// Connection is the subset of the storage API used by [Bucket].
type Connection interface {
	// Lookup reports whether the bucket exists.
	Lookup(ctx context.Context, name string) (bool, error)
	CreateBucket(ctx context.Context, name, location string) error
	DeleteBucket(ctx context.Context, name string) error
	GetBucket(ctx context.Context, name string) (*Info, error)
	// SetBucketPolicy replaces the bucket policy with the given JSON document.
	SetBucketPolicy(ctx context.Context, name, policy string) error
	// SetBucketTags replaces the bucket tag set.
	SetBucketTags(ctx context.Context, name string, tags map[string]string) error
}

// Bucket is a named bucket in a region, bound to a connection.
type Bucket struct {
	conn     Connection
	name     string
	region   string
	location string
}

// New binds a bucket without contacting the storage.
func New(conn Connection, name, region string) (*Bucket, error) {
	location, err := Location(region)
	if err != nil {
		return nil, err
	}
	return &Bucket{
		conn:     conn,
		name:     name,
		region:   region,
		location: location,
	}, nil
}

// Open binds a bucket and creates it when it does not exist yet.
func Open(ctx context.Context, conn Connection, name, region string) (*Bucket, error) {
	b, err := New(conn, name, region)
	if err != nil {
		return nil, err
	}
	exists, err := b.Lookup(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := b.Create(ctx); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Bucket) Name() string {
	return b.name
}

func (b *Bucket) Region() string {
	return b.region
}

func (b *Bucket) Lookup(ctx context.Context) (bool, error) {
	return b.conn.Lookup(ctx, b.name)
}

func (b *Bucket) Create(ctx context.Context) error {
	slog.Debug("Creating bucket", "bucket", b.name, "region", b.region, "location", b.location)
	return b.conn.CreateBucket(ctx, b.name, b.location)
}

func (b *Bucket) Delete(ctx context.Context) error {
	slog.Debug("Deleting bucket", "bucket", b.name)
	return b.conn.DeleteBucket(ctx, b.name)
}

func (b *Bucket) Get(ctx context.Context) (*Info, error) {
	return b.conn.GetBucket(ctx, b.name)
}

// UploadPolicy sets and replaces the bucket policy. The bucket must exist.
func (b *Bucket) UploadPolicy(ctx context.Context, data string) error {
	if _, err := b.Get(ctx); err != nil {
		return err
	}
	return b.conn.SetBucketPolicy(ctx, b.name, data)
}

// UploadDocument encodes and uploads a policy document.
func (b *Bucket) UploadDocument(ctx context.Context, document *policy.Document) error {
	data, err := document.JSON()
	if err != nil {
		return err
	}
	return b.UploadPolicy(ctx, data)
}

// SetTags sets the cost tags of the bucket.
func (b *Bucket) SetTags(ctx context.Context, tags map[string]string) error {
	slog.Debug("Tagging bucket", "bucket", b.name, "tags", tags)
	return b.conn.SetBucketTags(ctx, b.name, tags)
}
