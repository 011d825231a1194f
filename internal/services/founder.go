package services

import (
	"context"
	"errors"
	"strings"

	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/storage"
	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

// FounderProfileInput carries the editable fields of a founder profile.
// ProfilePhoto may be a URL, a data URL or raw base64.
type FounderProfileInput struct {
	Bio           string
	Location      string
	BusinessStage string
	FundingStage  string
	Skills        []string
	Interests     []string
	LookingFor    []string
	Hiring        bool
	HiringDetails string
	ProfilePhoto  string
}

// FounderService encapsulates founder profile use-cases.
type FounderService struct {
	profiles FounderProfileRepository
	users    UserRepository
	assets   AssetResolver
	log      *logger.Logger
}

func NewFounderService(profiles FounderProfileRepository, users UserRepository, assets AssetResolver, log *logger.Logger) *FounderService {
	return &FounderService{
		profiles: profiles,
		users:    users,
		assets:   assets,
		log:      log.With("service", "FounderService"),
	}
}

// UpsertProfile creates or replaces the actor's own profile and marks the
// owning user as profile-complete.
func (s *FounderService) UpsertProfile(ctx context.Context, actor authz.Actor, in FounderProfileInput) (types.FounderProfileView, error) {
	if !authz.CanManageProfile(actor) {
		return types.FounderProfileView{}, forbidden("only founders can manage a founder profile")
	}

	stage := types.StageIdea
	if strings.TrimSpace(in.BusinessStage) != "" {
		var ok bool
		stage, ok = types.ParseBusinessStage(in.BusinessStage)
		if !ok {
			return types.FounderProfileView{}, invalid("businessStage", "business stage is not supported")
		}
	}

	photo, err := resolveAsset(ctx, s.assets, storage.AssetProfilePhoto, "profilePhoto", strings.TrimSpace(in.ProfilePhoto))
	if err != nil {
		return types.FounderProfileView{}, err
	}

	profile := types.FounderProfile{
		UserID:        actor.UserID,
		Bio:           strings.TrimSpace(in.Bio),
		Location:      strings.TrimSpace(in.Location),
		BusinessStage: stage,
		FundingStage:  strings.TrimSpace(in.FundingStage),
		Skills:        uniqueLabels(in.Skills),
		Interests:     uniqueLabels(in.Interests),
		LookingFor:    uniqueLabels(in.LookingFor),
		Hiring:        in.Hiring,
		HiringDetails: strings.TrimSpace(in.HiringDetails),
		ProfilePhoto:  photo,
	}

	profile, err = s.profiles.Upsert(ctx, profile)
	if err != nil {
		return types.FounderProfileView{}, err
	}
	if err := s.users.SetProfileComplete(ctx, actor.UserID, true); err != nil {
		return types.FounderProfileView{}, notFound(err, "user")
	}

	owner, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return types.FounderProfileView{}, notFound(err, "user")
	}
	s.log.Info("founder profile saved", "founder_id", actor.UserID)
	return profileView(profile, owner), nil
}

// Get returns the profile of the founder with the given user id.
func (s *FounderService) Get(ctx context.Context, founderID int) (types.FounderProfileView, error) {
	profile, err := s.profiles.Get(ctx, founderID)
	if err != nil {
		return types.FounderProfileView{}, notFound(err, "founder profile")
	}
	owner, err := s.users.GetByID(ctx, founderID)
	if err != nil {
		return types.FounderProfileView{}, notFound(err, "founder")
	}
	return profileView(profile, owner), nil
}

// List returns every profile whose owner is still active, newest first.
func (s *FounderService) List(ctx context.Context) ([]types.FounderProfileView, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.FounderProfileView, 0, len(profiles))
	for _, p := range profiles {
		owner, err := s.users.GetByID(ctx, p.UserID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !owner.Active {
			continue
		}
		out = append(out, profileView(p, owner))
	}
	return out, nil
}

func profileView(p types.FounderProfile, owner types.User) types.FounderProfileView {
	view := types.FounderProfileView{FounderProfile: p}
	if fv, ok := types.NewUserView(owner).(types.FounderView); ok {
		view.Founder = fv
	}
	return view
}

// uniqueLabels trims labels, drops empty ones and keeps the first occurrence
// of each (case-insensitive) in input order.
func uniqueLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		key := strings.ToLower(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
