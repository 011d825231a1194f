package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

type QuestionRepository struct {
	mu        sync.RWMutex
	nextID    int
	questions map[int]types.Question
}

func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{questions: make(map[int]types.Question)}
}

func cloneQuestion(q types.Question) types.Question {
	q.AnsweredAt = timePtr(q.AnsweredAt)
	return q
}

func (r *QuestionRepository) Get(_ context.Context, id int) (types.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	return cloneQuestion(q), nil
}

func (r *QuestionRepository) ListByFounder(_ context.Context, founderID int) ([]types.Question, error) {
	return r.filter(func(q types.Question) bool { return q.FounderID == founderID }), nil
}

func (r *QuestionRepository) ListByAsker(_ context.Context, askerID int) ([]types.Question, error) {
	return r.filter(func(q types.Question) bool { return q.AskerID == askerID }), nil
}

func (r *QuestionRepository) filter(keep func(types.Question) bool) []types.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Question, 0)
	for _, q := range r.questions {
		if keep(q) {
			out = append(out, cloneQuestion(q))
		}
	}
	slices.SortFunc(out, func(a, b types.Question) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out
}

func (r *QuestionRepository) Create(_ context.Context, q types.Question) (types.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	q.ID = r.nextID
	q.CreatedAt = now()
	q.UpdatedAt = q.CreatedAt
	r.questions[q.ID] = cloneQuestion(q)
	return cloneQuestion(q), nil
}

func (r *QuestionRepository) Update(_ context.Context, q types.Question) (types.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.questions[q.ID]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	stored.Text = q.Text
	stored.Category = q.Category
	stored.Anonymous = q.Anonymous
	stored.Answer = q.Answer
	stored.IsAnswered = q.IsAnswered
	stored.AnsweredAt = timePtr(q.AnsweredAt)
	stored.UpdatedAt = now()
	r.questions[q.ID] = stored
	return cloneQuestion(stored), nil
}

func (r *QuestionRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.questions, id)
	return nil
}
