package memory

import (
	"context"
	"sort"
	"sync"

	"treasury/internal/skill/models"
	id "treasury/pkg/domain"
	"treasury/pkg/platform/sentinel"
)

// Store is the in-process skill catalogue. It also mirrors the Redis
// catalogue for circuit-breaker fallback.
type Store struct {
	mu     sync.RWMutex
	skills map[id.SkillID]models.Skill
}

func New() *Store {
	return &Store{skills: make(map[id.SkillID]models.Skill)}
}

func (s *Store) Add(_ context.Context, skill models.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skills[skill.ID]; ok {
		return sentinel.ErrConflict
	}
	s.skills[skill.ID] = skill
	return nil
}

// Put inserts or overwrites a skill.
func (s *Store) Put(skill models.Skill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills[skill.ID] = skill
}

func (s *Store) Get(_ context.Context, skillID id.SkillID) (*models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	skill, ok := s.skills[skillID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &skill, nil
}

func (s *Store) Deprecate(_ context.Context, skillID id.SkillID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	skill, ok := s.skills[skillID]
	if !ok {
		return sentinel.ErrNotFound
	}
	skill.Deprecated = true
	s.skills[skillID] = skill
	return nil
}

func (s *Store) List(_ context.Context) ([]models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Skill, 0, len(s.skills))
	for _, skill := range s.skills {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
