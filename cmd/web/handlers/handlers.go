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

// Package handlers exposes the policy generation and the bundle management over HTTP.
package handlers

import (
	"c3-policy-manager/internal/bucket"
	"c3-policy-manager/internal/bundle"
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/generator"
	"c3-policy-manager/internal/policy"
	"c3-policy-manager/internal/policy/parser"
	"c3-policy-manager/internal/usecases"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// RulesRequest carries the content of a rule file and the scope to generate it for.
type RulesRequest struct {
	Rules   string `json:"rules" binding:"required"`
	Cluster string `json:"cluster" binding:"required"`
	Account string `json:"account" binding:"required"`
}

// PublishRequest is the body of PUT /api/buckets/:name/policy.
type PublishRequest struct {
	RulesRequest
	Region string            `json:"region"`
	Tags   map[string]string `json:"tags"`
}

type Service struct {
	repo  bundle.Repository
	conn  bucket.Connection
	mutex sync.RWMutex
}

func NewService(repo bundle.Repository, conn bucket.Connection) *Service {
	return &Service{
		repo: repo,
		conn: conn,
	}
}

// Register adds the API routes to the router.
func (s *Service) Register(router gin.IRouter) {
	api := router.Group("/api")
	api.POST("/entries", s.PostEntries)
	api.POST("/statements", s.PostStatements)
	api.GET("/buckets/:name", s.GetBucket)
	api.PUT("/buckets/:name/policy", s.PutBucketPolicy)
	api.GET("/bundle", s.GetBundle)
	api.DELETE("/bundle/buckets/:name", s.DeleteBundleBucket)
}

func abort(c *gin.Context, status int, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// generationStatus maps the errors of the rule processing to an HTTP status.
func generationStatus(err error) int {
	switch {
	case errors.Is(err, parser.ErrMalformedRuleFile),
		errors.Is(err, parser.ErrMalformedSection),
		errors.Is(err, policy.ErrInvalidConditionClause),
		errors.Is(err, policy.ErrInvalidEffect),
		errors.Is(err, policy.ErrEmptyActionList),
		errors.Is(err, bucket.ErrUnknownRegion):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func bindRules(c *gin.Context, request any) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		abort(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Service) PostEntries(c *gin.Context) {
	var request RulesRequest
	if !bindRules(c, &request) {
		return
	}
	rules, err := parser.ParseRuleFile([]byte(request.Rules))
	if err != nil {
		abort(c, generationStatus(err), err)
		return
	}
	entries, err := generator.GenerateS3Entries(rules, request.Cluster, request.Account)
	if err != nil {
		abort(c, generationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Service) PostStatements(c *gin.Context) {
	var request RulesRequest
	if !bindRules(c, &request) {
		return
	}
	document, err := generateDocument(request)
	if err != nil {
		abort(c, generationStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func generateDocument(request RulesRequest) (*policy.Document, error) {
	rules, err := parser.ParseRuleFile([]byte(request.Rules))
	if err != nil {
		return nil, err
	}
	return generator.GenerateDocument(rules, request.Cluster, request.Account)
}

func (s *Service) GetBucket(c *gin.Context) {
	name := c.Param("name")
	found, err := s.conn.Lookup(c.Request.Context(), name)
	if err != nil {
		abort(c, http.StatusBadGateway, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "bucket " + name + " not found"})
		return
	}
	info, err := s.conn.GetBucket(c.Request.Context(), name)
	if err != nil {
		abort(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// PutBucketPolicy uploads the generated document to the bucket, creating it when missing,
// and distributes it in the latest bundle.
func (s *Service) PutBucketPolicy(c *gin.Context) {
	name := c.Param("name")
	var request PublishRequest
	if !bindRules(c, &request) {
		return
	}
	if request.Region == "" {
		request.Region = config.Region
	}
	document, err := generateDocument(request.RulesRequest)
	if err != nil {
		abort(c, generationStatus(err), err)
		return
	}

	ctx := c.Request.Context()
	b, err := bucket.Open(ctx, s.conn, name, request.Region)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, bucket.ErrUnknownRegion) {
			status = http.StatusUnprocessableEntity
		}
		abort(c, status, err)
		return
	}
	if err := b.UploadDocument(ctx, document); err != nil {
		abort(c, http.StatusBadGateway, err)
		return
	}
	if len(request.Tags) > 0 {
		if err := b.SetTags(ctx, request.Tags); err != nil {
			abort(c, http.StatusBadGateway, err)
			return
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := usecases.AddBucketToBundle(ctx, s.repo, name, document); err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, document)
}

func (s *Service) GetBundle(c *gin.Context) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	description, err := usecases.DescribeBundle(c.Request.Context(), s.repo)
	if errors.Is(err, bundle.ErrBundleNotFound) {
		abort(c, http.StatusNotFound, err)
		return
	} else if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, description)
}

func (s *Service) DeleteBundleBucket(c *gin.Context) {
	name := c.Param("name")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := usecases.RemoveBucketFromBundle(c.Request.Context(), s.repo, name)
	if errors.Is(err, bundle.ErrBucketNotFound) || errors.Is(err, bundle.ErrBundleNotFound) {
		abort(c, http.StatusNotFound, err)
		return
	} else if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}
