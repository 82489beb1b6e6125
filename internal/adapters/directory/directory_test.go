package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"b2b_marketplace_backend/platform/apperr"
	"b2b_marketplace_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var companyID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func directoryServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/api/v1/companies/"+companyID.String() {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "11111111-1111-1111-1111-111111111111",
			"name": "Acme Industrial",
			"contactName": "Ada Lovelace",
			"email": "ada@acme.test",
			"phone": "06 12345678",
			"address": "Kade 1, Rotterdam",
			"countryCode": "NL"
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestLookupBuyerNormalizesPhone(t *testing.T) {
	var hits int32
	srv := directoryServer(t, &hits)
	d := New(NewClient(srv.URL, "token", logger.Nop()), nil, time.Minute, logger.Nop())

	buyer, err := d.LookupBuyer(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", buyer.Name)
	assert.Equal(t, "Acme Industrial", buyer.Company)
	assert.Equal(t, "+31612345678", buyer.Phone)
	assert.Equal(t, "Kade 1, Rotterdam", buyer.Address)

	supplier, err := d.LookupSupplier(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Industrial", supplier.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "noop cache always refetches")
}

func TestLookupIsCachedAndInvalidated(t *testing.T) {
	var hits int32
	srv := directoryServer(t, &hits)
	cache, mr := newRedisCache(t)
	d := New(NewClient(srv.URL, "token", logger.Nop()), cache, time.Minute, logger.Nop())
	ctx := context.Background()

	_, err := d.LookupSupplier(ctx, companyID)
	require.NoError(t, err)
	_, err = d.LookupBuyer(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, mr.Exists(redisKeyPrefix+companyID.String()))

	require.NoError(t, d.Invalidate(ctx, companyID))
	_, err = d.LookupSupplier(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	mr.FastForward(2 * time.Minute)
	_, err = d.LookupSupplier(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "entry expired")
}

func TestLookupSurvivesCacheOutage(t *testing.T) {
	var hits int32
	srv := directoryServer(t, &hits)
	cache, mr := newRedisCache(t)
	mr.Close()
	d := New(NewClient(srv.URL, "token", logger.Nop()), cache, time.Minute, logger.Nop())

	supplier, err := d.LookupSupplier(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Industrial", supplier.Name)
}

func TestLookupUnknownCompany(t *testing.T) {
	var hits int32
	srv := directoryServer(t, &hits)
	d := New(NewClient(srv.URL, "token", logger.Nop()), nil, time.Minute, logger.Nop())

	_, err := d.LookupSupplier(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestContactPrefersContactName(t *testing.T) {
	var hits int32
	srv := directoryServer(t, &hits)
	d := New(NewClient(srv.URL, "token", logger.Nop()), nil, time.Minute, logger.Nop())

	name, email, err := d.Contact(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)
	assert.Equal(t, "ada@acme.test", email)

	_, _, err = d.Contact(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
