package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

// AskInput carries a new question.
type AskInput struct {
	FounderID int
	Text      string
	Category  string
	Anonymous bool
}

// EditQuestionInput carries editable question fields. Nil fields are left unchanged.
type EditQuestionInput struct {
	Text      *string
	Category  *string
	Anonymous *bool
}

// QuestionService implements the Q&A board on founder profiles.
type QuestionService struct {
	repo  QuestionRepository
	users UserRepository
	log   *logger.Logger
	now   func() time.Time
}

func NewQuestionService(repo QuestionRepository, users UserRepository, log *logger.Logger) *QuestionService {
	return &QuestionService{
		repo:  repo,
		users: users,
		log:   log.With("service", "QuestionService"),
		now:   time.Now,
	}
}

// Ask posts a question to a founder. Founders cannot ask themselves.
func (s *QuestionService) Ask(ctx context.Context, actor authz.Actor, in AskInput) (types.QuestionView, error) {
	founder, err := s.users.GetByID(ctx, in.FounderID)
	if err != nil || founder.Role != types.RoleFounder || !founder.Active {
		if err == nil || errors.Is(err, store.ErrNotFound) {
			return types.QuestionView{}, &NotFoundError{Resource: "founder"}
		}
		return types.QuestionView{}, err
	}
	if !authz.CanAsk(actor, founder) {
		return types.QuestionView{}, forbidden("you cannot ask a question on your own profile")
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return types.QuestionView{}, invalid("question", "question text is required")
	}
	category, ok := types.ParseQuestionCategory(in.Category)
	if !ok {
		return types.QuestionView{}, invalid("category", "question category is not supported")
	}

	q, err := s.repo.Create(ctx, types.Question{
		AskerID:   actor.UserID,
		FounderID: founder.ID,
		Text:      text,
		Category:  category,
		Anonymous: in.Anonymous,
	})
	if err != nil {
		return types.QuestionView{}, err
	}
	s.log.Info("question asked", "question_id", q.ID, "founder_id", founder.ID)
	return s.view(ctx, q, nil)
}

// Answer sets or overwrites the answer. Only the target founder may answer.
func (s *QuestionService) Answer(ctx context.Context, actor authz.Actor, id int, answer string) (types.QuestionView, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.QuestionView{}, notFound(err, "question")
	}
	if !authz.Allowed(actor, authz.ActionAnswer, authz.Question(q)) {
		return types.QuestionView{}, forbidden("only the founder can answer this question")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return types.QuestionView{}, invalid("answer", "answer text is required")
	}

	now := s.now()
	q.Answer = answer
	q.IsAnswered = true
	q.AnsweredAt = &now

	q, err = s.repo.Update(ctx, q)
	if err != nil {
		return types.QuestionView{}, notFound(err, "question")
	}
	return s.view(ctx, q, nil)
}

// Edit changes a question. The asker and admins may edit. A question asked
// anonymously stays anonymous.
func (s *QuestionService) Edit(ctx context.Context, actor authz.Actor, id int, in EditQuestionInput) (types.QuestionView, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.QuestionView{}, notFound(err, "question")
	}
	if !authz.Allowed(actor, authz.ActionEdit, authz.Question(q)) {
		return types.QuestionView{}, forbidden("you can only edit your own questions")
	}

	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return types.QuestionView{}, invalid("question", "question text is required")
		}
		q.Text = text
	}
	if in.Category != nil {
		category, ok := types.ParseQuestionCategory(*in.Category)
		if !ok {
			return types.QuestionView{}, invalid("category", "question category is not supported")
		}
		q.Category = category
	}
	if in.Anonymous != nil {
		// Anonymity is one-way.
		if q.Anonymous && !*in.Anonymous {
			return types.QuestionView{}, invalid("anonymous", "an anonymous question cannot be made public")
		}
		q.Anonymous = *in.Anonymous
	}

	q, err = s.repo.Update(ctx, q)
	if err != nil {
		return types.QuestionView{}, notFound(err, "question")
	}
	return s.view(ctx, q, nil)
}

// Delete removes a question. The asker, the target founder and admins may delete.
func (s *QuestionService) Delete(ctx context.Context, actor authz.Actor, id int) error {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFound(err, "question")
	}
	if !authz.Allowed(actor, authz.ActionDelete, authz.Question(q)) {
		return forbidden("you cannot delete this question")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "question")
	}
	s.log.Info("question deleted", "question_id", id, "by", actor.UserID)
	return nil
}

// ListForFounder returns the public board of a founder, newest first.
func (s *QuestionService) ListForFounder(ctx context.Context, founderID int) ([]types.QuestionView, error) {
	questions, err := s.repo.ListByFounder(ctx, founderID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, questions)
}

// ListMine returns the questions the actor asked, newest first.
func (s *QuestionService) ListMine(ctx context.Context, actor authz.Actor) ([]types.QuestionView, error) {
	questions, err := s.repo.ListByAsker(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, questions)
}

func (s *QuestionService) views(ctx context.Context, questions []types.Question) ([]types.QuestionView, error) {
	askers := make(map[int]*types.User)
	out := make([]types.QuestionView, 0, len(questions))
	for _, q := range questions {
		v, err := s.view(ctx, q, askers)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// view populates the asker unless the question is anonymous. cache may be nil.
func (s *QuestionService) view(ctx context.Context, q types.Question, cache map[int]*types.User) (types.QuestionView, error) {
	if q.Anonymous {
		return types.NewQuestionView(q, nil), nil
	}
	asker, cached := cache[q.AskerID]
	if !cached {
		u, err := s.users.GetByID(ctx, q.AskerID)
		switch {
		case err == nil:
			asker = &u
		case errors.Is(err, store.ErrNotFound):
		default:
			return types.QuestionView{}, err
		}
		if cache != nil {
			cache[q.AskerID] = asker
		}
	}
	return types.NewQuestionView(q, asker), nil
}
