package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Suministros-api/internal/application/reservation"
)

const cartKeyPrefix = "cart:"

var _ reservation.CartStore = (*CartStore)(nil)

// reserveScript suma delta al producto del carrito solo si el resultado no supera el tope.
// Devuelve {cantidad, 1} si reservó o {cantidad_actual, 0} si no.
var reserveScript = goredis.NewScript(`
local key = KEYS[1]
local field = ARGV[1]
local delta = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local current = tonumber(redis.call('HGET', key, field) or '0')
if current + delta > limit then
	return {current, 0}
end

local updated = redis.call('HINCRBY', key, field, delta)
if ttl > 0 then
	redis.call('PEXPIRE', key, ttl)
end
return {updated, 1}
`)

// CartStore guarda cada carrito como un hash producto -> cantidad.
type CartStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewCartStore construye el almacén. ttl <= 0 deja los carritos sin expiración.
func NewCartStore(client *goredis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(key reservation.CartKey) string {
	return cartKeyPrefix + key.UnitID + ":" + key.UserID
}

func (s *CartStore) Reserve(ctx context.Context, key reservation.CartKey, productID string, delta, limit int) (int, bool, error) {
	res, err := reserveScript.Run(ctx, s.client, []string{cartKey(key)}, productID, delta, limit, s.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("reserve cart item: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("reserve cart item: respuesta inesperada %v", res)
	}
	return int(res[0]), res[1] == 1, nil
}

func (s *CartStore) Set(ctx context.Context, key reservation.CartKey, productID string, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, key, productID)
	}
	k := cartKey(key)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, productID, qty)
	if s.ttl > 0 {
		pipe.PExpire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set cart item: %w", err)
	}
	return nil
}

func (s *CartStore) Remove(ctx context.Context, key reservation.CartKey, productID string) error {
	if err := s.client.HDel(ctx, cartKey(key), productID).Err(); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (s *CartStore) Items(ctx context.Context, key reservation.CartKey) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	out := make(map[string]int, len(raw))
	for id, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("cart item %s: cantidad inválida %q", id, v)
		}
		if n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (s *CartStore) Clear(ctx context.Context, key reservation.CartKey) error {
	if err := s.client.Del(ctx, cartKey(key)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
