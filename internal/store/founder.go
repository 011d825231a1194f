package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/startup-vidyapith/apiserver/types"
)

// FounderProfileRepository handles persistence for founder profiles.
type FounderProfileRepository struct {
	db *sql.DB
}

func NewFounderProfileRepository(db *sql.DB) *FounderProfileRepository {
	return &FounderProfileRepository{db: db}
}

const founderProfileColumns = `user_id, bio, location, business_stage, funding_stage, skills, interests,
	looking_for, hiring, hiring_details, profile_photo, created_at, updated_at`

func scanFounderProfile(row rowScanner) (types.FounderProfile, error) {
	var profile types.FounderProfile
	var skillsJSON, interestsJSON, lookingForJSON []byte
	err := row.Scan(
		&profile.UserID,
		&profile.Bio,
		&profile.Location,
		&profile.BusinessStage,
		&profile.FundingStage,
		&skillsJSON,
		&interestsJSON,
		&lookingForJSON,
		&profile.Hiring,
		&profile.HiringDetails,
		&profile.ProfilePhoto,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.FounderProfile{}, ErrNotFound
		}
		return types.FounderProfile{}, err
	}
	if profile.Skills, err = decodeList[string](skillsJSON); err != nil {
		return types.FounderProfile{}, err
	}
	if profile.Interests, err = decodeList[string](interestsJSON); err != nil {
		return types.FounderProfile{}, err
	}
	if profile.LookingFor, err = decodeList[string](lookingForJSON); err != nil {
		return types.FounderProfile{}, err
	}
	return profile, nil
}

func (r *FounderProfileRepository) Get(ctx context.Context, userID int) (types.FounderProfile, error) {
	query := `SELECT ` + founderProfileColumns + ` FROM founder_profiles WHERE user_id = $1`
	return scanFounderProfile(r.db.QueryRowContext(ctx, query, userID))
}

func (r *FounderProfileRepository) List(ctx context.Context) ([]types.FounderProfile, error) {
	query := `SELECT ` + founderProfileColumns + ` FROM founder_profiles ORDER BY created_at DESC, user_id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]types.FounderProfile, 0)
	for rows.Next() {
		profile, err := scanFounderProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Upsert creates the profile keyed by profile.UserID or replaces its
// editable fields. CreatedAt is kept from the first save.
func (r *FounderProfileRepository) Upsert(ctx context.Context, profile types.FounderProfile) (types.FounderProfile, error) {
	now := time.Now().UTC()

	skillsJSON, err := encodeList(profile.Skills)
	if err != nil {
		return types.FounderProfile{}, err
	}
	interestsJSON, err := encodeList(profile.Interests)
	if err != nil {
		return types.FounderProfile{}, err
	}
	lookingForJSON, err := encodeList(profile.LookingFor)
	if err != nil {
		return types.FounderProfile{}, err
	}

	query := `
		INSERT INTO founder_profiles (user_id, bio, location, business_stage, funding_stage, skills,
			interests, looking_for, hiring, hiring_details, profile_photo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (user_id) DO UPDATE
		SET bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			business_stage = EXCLUDED.business_stage,
			funding_stage = EXCLUDED.funding_stage,
			skills = EXCLUDED.skills,
			interests = EXCLUDED.interests,
			looking_for = EXCLUDED.looking_for,
			hiring = EXCLUDED.hiring,
			hiring_details = EXCLUDED.hiring_details,
			profile_photo = EXCLUDED.profile_photo,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + founderProfileColumns
	return scanFounderProfile(r.db.QueryRowContext(
		ctx,
		query,
		profile.UserID,
		profile.Bio,
		profile.Location,
		profile.BusinessStage,
		profile.FundingStage,
		skillsJSON,
		interestsJSON,
		lookingForJSON,
		profile.Hiring,
		profile.HiringDetails,
		profile.ProfilePhoto,
		now,
	))
}
