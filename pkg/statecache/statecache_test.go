package statecache

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registrar-ops/triage/pkg/lifecycle"
)

type fakeSource struct {
	state lifecycle.DomainState
	err   error
	calls int
}

func (f *fakeSource) DomainState(context.Context, string) (lifecycle.DomainState, error) {
	f.calls++
	return f.state, f.err
}

// unreachableClient points at a closed port so every Redis operation
// fails fast, exercising the best-effort fall-through.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
}

func TestDomainStateFallsThroughOnRedisFailure(t *testing.T) {
	src := &fakeSource{state: lifecycle.StateSuspendedBilling}
	c := New(unreachableClient(), src, 0)

	state, err := c.DomainState(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateSuspendedBilling, state)
	assert.Equal(t, 1, src.calls)
}

func TestDomainStateSourceErrorNotMasked(t *testing.T) {
	src := &fakeSource{err: errors.New("account system down")}
	c := New(unreachableClient(), src, 0)

	state, err := c.DomainState(context.Background(), "example.com")
	assert.Error(t, err)
	assert.Equal(t, lifecycle.StateUnknown, state)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "triage:state:example.com", cacheKey("example.com"))
}
