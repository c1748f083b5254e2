package bucket

import (
	"c3-policy-manager/internal/policy"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConnection struct {
	buckets  map[string]string
	policies map[string]string
	tags     map[string]map[string]string
	calls    []string
	err      error
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		buckets:  map[string]string{},
		policies: map[string]string{},
		tags:     map[string]map[string]string{},
	}
}

var errNoSuchBucket = errors.New("NoSuchBucket")

func (m *mockConnection) Lookup(_ context.Context, name string) (bool, error) {
	m.calls = append(m.calls, "lookup")
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.buckets[name]
	return ok, nil
}

func (m *mockConnection) CreateBucket(_ context.Context, name, location string) error {
	m.calls = append(m.calls, "create")
	if m.err != nil {
		return m.err
	}
	m.buckets[name] = location
	return nil
}

func (m *mockConnection) DeleteBucket(_ context.Context, name string) error {
	m.calls = append(m.calls, "delete")
	if _, ok := m.buckets[name]; !ok {
		return errNoSuchBucket
	}
	delete(m.buckets, name)
	return nil
}

func (m *mockConnection) GetBucket(_ context.Context, name string) (*Info, error) {
	m.calls = append(m.calls, "get")
	location, ok := m.buckets[name]
	if !ok {
		return nil, errNoSuchBucket
	}
	return &Info{Name: name, Location: location}, nil
}

func (m *mockConnection) SetBucketPolicy(_ context.Context, name, policy string) error {
	m.calls = append(m.calls, "policy")
	m.policies[name] = policy
	return nil
}

func (m *mockConnection) SetBucketTags(_ context.Context, name string, tags map[string]string) error {
	m.calls = append(m.calls, "tags")
	m.tags[name] = tags
	return nil
}

func TestLocation(t *testing.T) {
	tests := []struct {
		region string
		want   string
	}{
		{"us-east-1", ""},
		{"us-west-1", "us-west-1"},
		{"us-west-2", "us-west-2"},
		{"EU", "EU"},
		{"ap-northeast-1", "ap-northeast-1"},
		{"ap-southeast-1", "ap-southeast-1"},
		{"ap-southeast-2", "ap-southeast-2"},
		{"cn-north-1", "cn-north-1"},
		{"sa-east-1", "sa-east-1"},
	}
	for _, test := range tests {
		t.Run(test.region, func(t *testing.T) {
			got, err := Location(test.region)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}

	_, err := Location("mars-north-1")
	assert.ErrorIs(t, err, ErrUnknownRegion)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a missing bucket", func(t *testing.T) {
		conn := newMockConnection()
		b, err := Open(ctx, conn, "cgs3log-opsqa", "us-west-2")
		require.NoError(t, err)
		assert.Equal(t, "cgs3log-opsqa", b.Name())
		assert.Equal(t, "us-west-2", b.Region())
		assert.Equal(t, []string{"lookup", "create"}, conn.calls)
		assert.Equal(t, "us-west-2", conn.buckets["cgs3log-opsqa"])
	})

	t.Run("keeps an existing bucket", func(t *testing.T) {
		conn := newMockConnection()
		conn.buckets["mybucket"] = ""
		_, err := Open(ctx, conn, "mybucket", "us-east-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"lookup"}, conn.calls)
	})

	t.Run("unknown region", func(t *testing.T) {
		conn := newMockConnection()
		_, err := Open(ctx, conn, "mybucket", "nowhere")
		assert.ErrorIs(t, err, ErrUnknownRegion)
		assert.Empty(t, conn.calls)
	})

	t.Run("connection errors are returned unchanged", func(t *testing.T) {
		conn := newMockConnection()
		conn.err = errors.New("AccessDenied")
		_, err := Open(ctx, conn, "mybucket", "us-east-1")
		assert.Same(t, conn.err, err)
	})
}

func TestBucketOperations(t *testing.T) {
	ctx := context.Background()
	conn := newMockConnection()
	b, err := New(conn, "mybucket", "EU")
	require.NoError(t, err)

	exists, err := b.Lookup(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, b.UploadPolicy(ctx, "{}"), errNoSuchBucket)
	assert.ErrorIs(t, b.Delete(ctx), errNoSuchBucket)

	require.NoError(t, b.Create(ctx))
	info, err := b.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Info{Name: "mybucket", Location: "EU"}, info)

	statement, err := policy.MakeStatement("opsqa", "root", "mybucket/*", "s3:GetObject", "Allow", "empty")
	require.NoError(t, err)
	require.NoError(t, b.UploadDocument(ctx, policy.NewDocument(statement)))
	uploaded, err := policy.ParseDocument([]byte(conn.policies["mybucket"]))
	require.NoError(t, err)
	assert.Equal(t, policy.NewDocument(statement), uploaded)

	tags := map[string]string{"BusinessUnit": "CityGrid", "Team": "Operations"}
	require.NoError(t, b.SetTags(ctx, tags))
	assert.Equal(t, tags, conn.tags["mybucket"])

	require.NoError(t, b.Delete(ctx))
	exists, err = b.Lookup(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}
