package lock

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Script bodies as sent by redislock v0.9.4; mocked EVALSHA calls are matched
// on their hashes.
var (
	obtainScript = redis.NewScript(`
if redis.call("set", KEYS[1], ARGV[1], "NX", "PX", ARGV[3]) then return redis.status_reply("OK") end

local offset = tonumber(ARGV[2])
if redis.call("getrange", KEYS[1], 0, offset-1) == string.sub(ARGV[1], 1, offset) then return redis.call("set", KEYS[1], ARGV[1], "PX", ARGV[3]) end
`)
	releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`)
)

const testToken = "lease-1"

func newMockLocker(t *testing.T) (*RedisLocker, redismock.ClientMock) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })

	locker := NewRedisLocker(rdb, time.Second)
	locker.token = testToken
	locker.retries = 0
	return locker, mock
}

func expectObtain(mock redismock.ClientMock, groupID string) *redismock.ExpectedCmd {
	return mock.ExpectEvalSha(obtainScript.Hash(), []string{"group-lock:" + groupID}, testToken, len(testToken), "1000")
}

func expectRelease(mock redismock.ClientMock, groupID string) *redismock.ExpectedCmd {
	return mock.ExpectEvalSha(releaseScript.Hash(), []string{"group-lock:" + groupID}, testToken)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	release, err := Noop{}.Acquire(ctx, "g1")
	require.NoError(t, err)
	assert.NoError(t, release(ctx))
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	locker, mock := newMockLocker(t)
	ctx := context.Background()

	expectObtain(mock, "g1").SetVal("OK")
	expectRelease(mock, "g1").SetVal(int64(1))

	release, err := locker.Acquire(ctx, "g1")
	require.NoError(t, err)
	assert.NoError(t, release(ctx))
}

func TestRedisLockerHeldElsewhere(t *testing.T) {
	locker, mock := newMockLocker(t)

	expectObtain(mock, "g1").SetErr(redis.Nil)

	_, err := locker.Acquire(context.Background(), "g1")
	assert.ErrorIs(t, err, ErrNotObtained)
}

func TestRedisLockerReportsExpiredLease(t *testing.T) {
	locker, mock := newMockLocker(t)
	ctx := context.Background()

	expectObtain(mock, "g1").SetVal("OK")
	expectRelease(mock, "g1").SetVal(int64(0))

	release, err := locker.Acquire(ctx, "g1")
	require.NoError(t, err)
	assert.ErrorIs(t, release(ctx), ErrLeaseLost)
}

func TestRedisLockerSurfacesRedisErrors(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	locker := NewRedisLocker(rdb, time.Second)

	// No expectations are registered, so every command fails.
	_, err := locker.Acquire(context.Background(), "g1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotObtained)
	assert.Contains(t, err.Error(), "failed to obtain group lock")
}
