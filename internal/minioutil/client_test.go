package minioutil

import (
	"c3-policy-manager/internal/policy"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousReadOnlyPolicy(t *testing.T) {
	data, err := AnonymousReadOnlyPolicy("c3-policy-bundles")
	require.NoError(t, err)

	document, err := policy.ParseDocument([]byte(data))
	require.NoError(t, err)
	require.Len(t, document.Statement, 2)

	list, read := document.Statement[0], document.Statement[1]
	assert.Equal(t, []string{"s3:GetBucketLocation", "s3:ListBucket"}, list.Action)
	assert.Equal(t, []string{"arn:aws:s3:::c3-policy-bundles"}, list.Resource)
	assert.Equal(t, []string{"s3:GetObject"}, read.Action)
	assert.Equal(t, []string{"arn:aws:s3:::c3-policy-bundles/*"}, read.Resource)
	for _, statement := range document.Statement {
		assert.Equal(t, policy.EffectAllow, statement.Effect)
		assert.True(t, statement.Principal.Wildcard)
		assert.Nil(t, statement.Condition)
	}
}

func TestNew(t *testing.T) {
	client, err := New("localhost:9000", "admin", "adminadmin", false)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", client.EndpointURL().Host)
	assert.Equal(t, "http", client.EndpointURL().Scheme)
}
