package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "readease"

// RedisRepository keeps each token as a hash that expires with the token,
// plus a per-user set of token strings used for lookups by owner.
type RedisRepository struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRepository constructs a repository on top of rdb.
func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb, prefix: redisKeyPrefix}
}

func (r *RedisRepository) tokenKey(token string) string {
	return r.prefix + ":token:" + token
}

func (r *RedisRepository) userKey(userID string) string {
	return r.prefix + ":user_tokens:" + userID
}

func (r *RedisRepository) FindByToken(ctx context.Context, token string) (*models.Token, error) {
	vals, err := r.rdb.HGetAll(ctx, r.tokenKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(vals) == 0 {
		return nil, common.ErrorNotFound
	}
	return decodeToken(token, vals)
}

func (r *RedisRepository) FindByUserAndKind(ctx context.Context, userID string, kind models.TokenKind) (*models.Token, error) {
	members, err := r.rdb.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var found *models.Token
	var stale []any
	for _, m := range members {
		t, err := r.FindByToken(ctx, m)
		if errors.Is(err, common.ErrorNotFound) {
			stale = append(stale, m)
			continue
		}
		if err != nil {
			return nil, err
		}
		if t.Kind != kind {
			continue
		}
		if found == nil || t.ExpiresAt.After(found.ExpiresAt) {
			found = t
		}
	}

	if len(stale) > 0 {
		if err := r.rdb.SRem(ctx, r.userKey(userID), stale...).Err(); err != nil {
			return nil, fmt.Errorf("redis error: %w", err)
		}
	}

	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *RedisRepository) Save(ctx context.Context, token *models.Token) error {
	key := r.tokenKey(token.Token)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"user_id", token.UserID,
			"kind", token.Kind.String(),
			"expires_at", strconv.FormatInt(token.ExpiresAt.UnixMilli(), 10),
		)
		p.PExpireAt(ctx, key, token.ExpiresAt)
		p.SAdd(ctx, r.userKey(token.UserID), token.Token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) DeleteByUser(ctx context.Context, userID string) error {
	members, err := r.rdb.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, r.tokenKey(m))
	}
	keys = append(keys, r.userKey(userID))

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, token *models.Token) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.tokenKey(token.Token))
		if token.UserID != "" {
			p.SRem(ctx, r.userKey(token.UserID), token.Token)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func decodeToken(token string, vals map[string]string) (*models.Token, error) {
	kind, err := models.ParseTokenKind(vals["kind"])
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	ms, err := strconv.ParseInt(vals["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis error: bad expires_at: %w", err)
	}
	return &models.Token{
		Token:     token,
		UserID:    vals["user_id"],
		Kind:      kind,
		ExpiresAt: time.UnixMilli(ms),
	}, nil
}
