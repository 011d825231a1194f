package services

import (
	"context"
	"errors"
	"testing"

	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/types"
)

func TestAnonymousQuestionsAreRedacted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")

	anon, err := env.questions.Ask(ctx, student, AskInput{FounderID: founder.UserID, Text: "What is your runway?", Category: "funding", Anonymous: true})
	if err != nil {
		t.Fatalf("Ask anonymous: %v", err)
	}
	if anon.Asker != nil {
		t.Fatalf("anonymous Ask returned asker %+v", anon.Asker)
	}
	if _, err := env.questions.Ask(ctx, student, AskInput{FounderID: founder.UserID, Text: "Are you hiring?"}); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	listings := map[string]func() ([]types.QuestionView, error){
		"founder board": func() ([]types.QuestionView, error) { return env.questions.ListForFounder(ctx, founder.UserID) },
		"asker list":    func() ([]types.QuestionView, error) { return env.questions.ListMine(ctx, student) },
	}
	for name, list := range listings {
		views, err := list()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(views) != 2 {
			t.Fatalf("%s returned %d questions, want 2", name, len(views))
		}
		for _, v := range views {
			switch {
			case v.Anonymous && v.Asker != nil:
				t.Fatalf("%s leaked asker on anonymous question %d", name, v.ID)
			case !v.Anonymous && (v.Asker == nil || v.Asker.Name != "Ravi"):
				t.Fatalf("%s asker = %+v, want Ravi", name, v.Asker)
			}
		}
		if views[0].Text != "Are you hiring?" {
			t.Fatalf("%s not newest first: %q", name, views[0].Text)
		}
	}
}

func TestAskRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")

	if _, err := env.questions.Ask(ctx, founder, AskInput{FounderID: founder.UserID, Text: "Me?"}); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("self question error = %v, want AuthorizationError", err)
	}
	if _, err := env.questions.Ask(ctx, founder, AskInput{FounderID: student.UserID, Text: "Hi"}); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("question to student error = %v, want NotFoundError", err)
	}
	if _, err := env.questions.Ask(ctx, student, AskInput{FounderID: founder.UserID, Text: "Hi", Category: "gossip"}); !errors.As(err, new(*ValidationError)) {
		t.Fatalf("bad category error = %v, want ValidationError", err)
	}

	dormant := env.createUser(t, types.RoleFounder, "Meera")
	if err := env.store.Users.SetActive(ctx, dormant.UserID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if _, err := env.questions.Ask(ctx, student, AskInput{FounderID: dormant.UserID, Text: "Hi"}); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("question to inactive founder error = %v, want NotFoundError", err)
	}
}

func TestAnswerEditDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	outsider := env.createUser(t, types.RoleStudent, "Dev")
	admin := env.createUser(t, types.RoleAdmin, "Meera")

	q, err := env.questions.Ask(ctx, student, AskInput{FounderID: founder.UserID, Text: "Remote ok?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if _, err := env.questions.Answer(ctx, student, q.ID, "yes"); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("asker Answer error = %v, want AuthorizationError", err)
	}
	answered, err := env.questions.Answer(ctx, founder, q.ID, "Yes")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !answered.IsAnswered || answered.AnsweredAt == nil || answered.Answer != "Yes" {
		t.Fatalf("answered = %+v", answered)
	}
	reanswered, err := env.questions.Answer(ctx, founder, q.ID, "Yes, fully remote")
	if err != nil {
		t.Fatalf("re-Answer: %v", err)
	}
	if reanswered.Answer != "Yes, fully remote" {
		t.Fatalf("answer = %q, want overwrite", reanswered.Answer)
	}

	text := "Is remote work ok?"
	if _, err := env.questions.Edit(ctx, founder, q.ID, EditQuestionInput{Text: &text}); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("founder Edit error = %v, want AuthorizationError", err)
	}
	edited, err := env.questions.Edit(ctx, admin, q.ID, EditQuestionInput{Text: &text})
	if err != nil {
		t.Fatalf("admin Edit: %v", err)
	}
	if edited.Text != text {
		t.Fatalf("text = %q", edited.Text)
	}

	if err := env.questions.Delete(ctx, outsider, q.ID); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("outsider Delete error = %v, want AuthorizationError", err)
	}
	if err := env.questions.Delete(ctx, founder, q.ID); err != nil {
		t.Fatalf("founder Delete: %v", err)
	}
	if _, err := env.questions.Answer(ctx, founder, q.ID, "late"); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("Answer deleted error = %v, want NotFoundError", err)
	}
}

func TestAnonymityCannotBeLifted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")
	admin := env.createUser(t, types.RoleAdmin, "Meera")

	q, err := env.questions.Ask(ctx, student, AskInput{FounderID: founder.UserID, Text: "What is your runway?", Anonymous: true})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	public := false
	for name, actor := range map[string]authz.Actor{"admin": admin, "asker": student} {
		_, err := env.questions.Edit(ctx, actor, q.ID, EditQuestionInput{Anonymous: &public})
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "anonymous" {
			t.Fatalf("%s lifting anonymity error = %v, want ValidationError on anonymous", name, err)
		}
	}

	views, err := env.questions.ListForFounder(ctx, founder.UserID)
	if err != nil {
		t.Fatalf("ListForFounder: %v", err)
	}
	if len(views) != 1 || !views[0].Anonymous || views[0].Asker != nil {
		t.Fatalf("founder board after edits = %+v, want one redacted question", views)
	}

	named, err := env.questions.Ask(ctx, student, AskInput{FounderID: founder.UserID, Text: "Are you hiring?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	hidden := true
	edited, err := env.questions.Edit(ctx, student, named.ID, EditQuestionInput{Anonymous: &hidden})
	if err != nil {
		t.Fatalf("Edit to anonymous: %v", err)
	}
	if !edited.Anonymous || edited.Asker != nil {
		t.Fatalf("edited question = %+v, want anonymous without asker", edited)
	}
}
