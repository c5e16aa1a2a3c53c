// Package store holds the process-lifetime exam and answer state.
// Nothing here is durable: every entry disappears on restart.
package store

import (
	"maps"
	"sync"

	"github.com/lecturelab/examgen/internal/model"
)

// ExamStore maps a document identifier to its generated question set.
type ExamStore interface {
	PutExam(documentID string, set model.ExamSet)
	GetExam(documentID string) (model.ExamSet, bool)
}

// AnswerStore maps a document identifier to the latest submitted
// answers. A new submission replaces the previous one wholesale.
type AnswerStore interface {
	PutAnswers(documentID string, sub model.AnswerSubmission)
	GetAnswers(documentID string) (model.AnswerSubmission, bool)
}

// MemoryStore is the in-memory implementation of ExamStore and
// AnswerStore. Access is per-key atomic under a single RWMutex;
// overwrites are last-writer-wins.
type MemoryStore struct {
	mu      sync.RWMutex
	exams   map[string]model.ExamSet
	answers map[string]model.AnswerSubmission
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		exams:   make(map[string]model.ExamSet),
		answers: make(map[string]model.AnswerSubmission),
	}
}

func (s *MemoryStore) PutExam(documentID string, set model.ExamSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams[documentID] = set
}

func (s *MemoryStore) GetExam(documentID string) (model.ExamSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.exams[documentID]
	return set, ok
}

// PutAnswers stores a copy of sub so later mutation by the caller cannot
// race a concurrent grading read.
func (s *MemoryStore) PutAnswers(documentID string, sub model.AnswerSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[documentID] = maps.Clone(sub)
}

func (s *MemoryStore) GetAnswers(documentID string) (model.AnswerSubmission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.answers[documentID]
	return maps.Clone(sub), ok
}
