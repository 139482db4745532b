package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"treasury/internal/skill/models"
	id "treasury/pkg/domain"
	"treasury/pkg/platform/sentinel"
)

const skillsKey = "treasury:skills"

const (
	active     = "0"
	deprecated = "1"
)

// deprecateScript flips a skill to deprecated only when it exists.
var deprecateScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], "1")
return 1
`)

// Store keeps the skill catalogue in a single Redis hash so every replica
// sees deprecations immediately.
type Store struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func field(skillID id.SkillID) string {
	return strconv.FormatUint(uint64(skillID), 10)
}

func (s *Store) Add(ctx context.Context, skill models.Skill) error {
	value := active
	if skill.Deprecated {
		value = deprecated
	}
	added, err := s.client.HSetNX(ctx, skillsKey, field(skill.ID), value).Result()
	if err != nil {
		return fmt.Errorf("add skill: %w", err)
	}
	if !added {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Store) Get(ctx context.Context, skillID id.SkillID) (*models.Skill, error) {
	value, err := s.client.HGet(ctx, skillsKey, field(skillID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get skill: %w", err)
	}
	return &models.Skill{ID: skillID, Deprecated: value == deprecated}, nil
}

func (s *Store) Deprecate(ctx context.Context, skillID id.SkillID) error {
	updated, err := deprecateScript.Run(ctx, s.client, []string{skillsKey}, field(skillID)).Int()
	if err != nil {
		return fmt.Errorf("deprecate skill: %w", err)
	}
	if updated == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.Skill, error) {
	all, err := s.client.HGetAll(ctx, skillsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	out := make([]models.Skill, 0, len(all))
	for k, v := range all {
		n, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, models.Skill{ID: id.SkillID(n), Deprecated: v == deprecated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
