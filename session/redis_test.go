package session

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestRedisStore_SurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	s := NewRedisStore(client)
	ctx := context.Background()

	assert.Error(t, s.Revoke(ctx, "jti", time.Now().Add(time.Minute)))
	_, err := s.IsRevoked(ctx, "jti")
	assert.Error(t, err)

	// Nothing to store for a token that already expired.
	assert.NoError(t, s.Revoke(ctx, "jti", time.Now().Add(-time.Minute)))

	m := NewManager(testSecret, time.Hour, s)
	token, err := NewManager(testSecret, time.Hour, nil).Issue(testUser())
	assert.NoError(t, err)
	_, err = m.Verify(ctx, token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestRevokedKey(t *testing.T) {
	assert.Equal(t, "vehicle-vault:revoked:abc", revokedKey("abc"))
}

func TestConnectRedis_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	_, err := ConnectRedis("127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
