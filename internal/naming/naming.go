// Package naming implements the hostname and bucket naming conventions used across clusters.
//
// A host name is composed as <dc><cluster><index>.<account>.<domain>, for instance
// aws1devweb1.opsqa.ctgrd.com, where the datacenter prefix is derived from the region.
package naming

import (
	"c3-policy-manager/internal/accounts"
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownRegion  = errors.New("unknown region")
	ErrInvalidCluster = errors.New("invalid cluster name")
	ErrMissingAccount = errors.New("account is required")
)

// Datacenter prefix for every region a cluster can live in.
var awsDatacenters = map[string]string{
	"us-east-1":      "aws1",
	"us-west-1":      "aws2",
	"eu-west-1":      "aws3",
	"us-west-2":      "aws4",
	"ap-northeast-1": "aws5",
	"ap-southeast-1": "aws6",
	"ap-southeast-2": "aws7",
	"sa-east-1":      "aws8",
}

// Cluster names must start with one of these environment prefixes.
var environmentPrefixes = []string{"dev", "qa", "stg", "prd", "ops", "tst"}

// Reserved tokens that can be used in place of a network in condition clauses.
var reservedCIDRs = map[string]string{
	"**PUBLIC**": "0.0.0.0/0",
}

const loggingBucketPrefix = "cgs3log-"

const maxTakenHosts = 1000

// AWSDC returns the datacenter prefix associated to the region.
func AWSDC(region string) (string, error) {
	dc, ok := awsDatacenters[region]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	return dc, nil
}

// ResolveCIDR translates a reserved token into its network. Unknown tokens are returned unchanged.
func ResolveCIDR(token string) string {
	if cidr, ok := reservedCIDRs[token]; ok {
		return cidr
	}
	return token
}

// ValidCluster reports whether the cluster name starts with a known environment prefix.
func ValidCluster(cluster string) bool {
	for _, prefix := range environmentPrefixes {
		if strings.HasPrefix(cluster, prefix) && len(cluster) > len(prefix) {
			return true
		}
	}
	return false
}

// GenHostname builds the fully qualified name of the index-th host of a cluster.
func GenHostname(cluster string, index int, account, region, domain string) (string, error) {
	if !ValidCluster(cluster) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCluster, cluster)
	}
	if account == "" {
		return "", ErrMissingAccount
	}
	dc, err := AWSDC(region)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%d.%s.%s", dc, cluster, index, account, domain), nil
}

// Resolver tells whether a host name is already registered.
type Resolver interface {
	Exists(ctx context.Context, hostname string) (bool, error)
}

// FindAvailableHostnames returns the first count host names of the cluster that are not yet registered,
// scanning indexes from 1.
func FindAvailableHostnames(ctx context.Context, resolver Resolver, cluster string, count int, account, region, domain string) ([]string, error) {
	hosts := make([]string, 0, count)
	// Scan at most count+maxTakenHosts indexes.
	for index := 1; len(hosts) < count && index <= count+maxTakenHosts; index++ {
		host, err := GenHostname(cluster, index, account, region, domain)
		if err != nil {
			return nil, err
		}
		exists, err := resolver.Exists(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", host, err)
		}
		if !exists {
			hosts = append(hosts, host)
		}
	}
	if len(hosts) < count {
		return nil, fmt.Errorf("only %d of %d host names available for cluster %s", len(hosts), count, cluster)
	}
	return hosts, nil
}

// LoggingBucketName returns the name of the bucket collecting the access logs of an account.
func LoggingBucketName(accountID, mapfile string) (string, error) {
	alias, err := accounts.TranslateAccount(accountID, mapfile)
	if err != nil {
		return "", err
	}
	return loggingBucketPrefix + alias, nil
}
