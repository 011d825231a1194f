package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/startup-vidyapith/apiserver/types"
)

func TestUpsertProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	student := env.createUser(t, types.RoleStudent, "Ravi")

	if _, err := env.founders.UpsertProfile(ctx, student, FounderProfileInput{Bio: "hi"}); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("student UpsertProfile error = %v, want AuthorizationError", err)
	}
	if _, err := env.founders.UpsertProfile(ctx, founder, FounderProfileInput{BusinessStage: "Unicorn"}); !errors.As(err, new(*ValidationError)) {
		t.Fatalf("bad stage error = %v, want ValidationError", err)
	}

	view, err := env.founders.UpsertProfile(ctx, founder, FounderProfileInput{
		Bio:           "Edtech for rural schools",
		BusinessStage: "early stage",
		Skills:        []string{"Go", " go ", "", "Design"},
		LookingFor:    []string{"Backend Intern", "Designer"},
		Hiring:        true,
		ProfilePhoto:  "https://cdn.example.com/asha.png",
	})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if view.UserID != founder.UserID || view.BusinessStage != types.StageEarlyStage {
		t.Fatalf("profile = %+v", view.FounderProfile)
	}
	if !reflect.DeepEqual(view.Skills, []string{"Go", "Design"}) {
		t.Fatalf("skills = %v", view.Skills)
	}
	if !view.Founder.ProfileComplete || view.Founder.StartupName != "Asha Labs" {
		t.Fatalf("founder view = %+v", view.Founder)
	}

	again, err := env.founders.UpsertProfile(ctx, founder, FounderProfileInput{Bio: "Updated"})
	if err != nil {
		t.Fatalf("second UpsertProfile: %v", err)
	}
	if !again.CreatedAt.Equal(view.CreatedAt) || again.Bio != "Updated" {
		t.Fatalf("upsert did not keep identity: %+v", again.FounderProfile)
	}

	list, err := env.founders.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("profiles = %d, want 1", len(list))
	}
	if _, err := env.founders.Get(ctx, student.UserID); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("Get missing error = %v, want NotFoundError", err)
	}
}

func TestProductLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	founder := env.createUser(t, types.RoleFounder, "Asha")
	other := env.createUser(t, types.RoleFounder, "Kiran")
	admin := env.createUser(t, types.RoleAdmin, "Meera")

	in := ProductInput{Name: "Shiksha", Description: "Offline lessons", Category: "education", Tags: []string{"edtech"}}
	if _, err := env.products.Create(ctx, founder, in); !errors.As(err, new(*ValidationError)) {
		t.Fatalf("Create without profile error = %v, want ValidationError", err)
	}
	if _, err := env.founders.UpsertProfile(ctx, founder, FounderProfileInput{}); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	product, err := env.products.Create(ctx, founder, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if product.Category != types.CategoryEducation || product.Status != types.ProductIdea {
		t.Fatalf("product = %+v", product)
	}

	testCases := []struct {
		name  string
		in    ProductInput
		field string
	}{
		{name: "missing name", in: ProductInput{Description: "d", Category: "Software"}, field: "name"},
		{name: "unknown category", in: ProductInput{Name: "n", Description: "d", Category: "Toys"}, field: "category"},
		{name: "unknown status", in: ProductInput{Name: "n", Description: "d", Category: "Software", Status: "Dead"}, field: "status"},
		{name: "bad url", in: ProductInput{Name: "n", Description: "d", Category: "Software", URL: "javascript:alert(1)"}, field: "url"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.products.Update(ctx, founder, product.ID, tc.in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("Update error = %v, want ValidationError on %s", err, tc.field)
			}
		})
	}

	in.Status = "Launched"
	if _, err := env.products.Update(ctx, other, product.ID, in); !errors.As(err, new(*AuthorizationError)) {
		t.Fatalf("other founder Update error = %v, want AuthorizationError", err)
	}
	updated, err := env.products.Update(ctx, founder, product.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != types.ProductLaunched {
		t.Fatalf("status = %s, want Launched", updated.Status)
	}

	if err := env.products.Delete(ctx, admin, product.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	if _, err := env.products.Get(ctx, product.ID); !errors.As(err, new(*NotFoundError)) {
		t.Fatalf("Get deleted error = %v, want NotFoundError", err)
	}
}
