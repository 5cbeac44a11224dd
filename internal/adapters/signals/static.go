package signals

import (
	"context"
	"sync"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/balance"
)

// Static serves signals from memory. It backs development setups without
// the external services and lets tests seed exact readings.
type Static struct {
	mu      sync.RWMutex
	loads   map[string][]balance.PersonLoad
	harmony map[string]balance.HarmonyReading
	habits  map[string][]balance.Habit
}

var (
	_ balance.CognitiveLoadSource = (*Static)(nil)
	_ balance.HarmonySource       = (*Static)(nil)
	_ balance.HabitSource         = (*Static)(nil)
)

// NewStatic returns an empty static source.
func NewStatic() *Static {
	return &Static{
		loads:   make(map[string][]balance.PersonLoad),
		harmony: make(map[string]balance.HarmonyReading),
		habits:  make(map[string][]balance.Habit),
	}
}

// SetCognitiveLoad replaces the family's load data.
func (s *Static) SetCognitiveLoad(familyID string, people []balance.PersonLoad) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[familyID] = append([]balance.PersonLoad(nil), people...)
}

// SetHarmony replaces the family's harmony reading.
func (s *Static) SetHarmony(familyID string, h balance.HarmonyReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.harmony[familyID] = h
}

// SetHabits replaces the family's active habits.
func (s *Static) SetHabits(familyID string, habits []balance.Habit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits[familyID] = append([]balance.Habit(nil), habits...)
}

func (s *Static) CognitiveLoad(_ context.Context, familyID string) ([]balance.PersonLoad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]balance.PersonLoad(nil), s.loads[familyID]...), nil
}

func (s *Static) Harmony(_ context.Context, familyID string) (balance.HarmonyReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.harmony[familyID], nil
}

func (s *Static) ActiveHabits(_ context.Context, familyID string) ([]balance.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]balance.Habit(nil), s.habits[familyID]...), nil
}
