package types

import (
	"strings"
	"time"
)

// BusinessStage describes how far along a startup is.
type BusinessStage string

// Supported business stages.
const (
	StageIdea        BusinessStage = "Idea"
	StageValidation  BusinessStage = "Validation"
	StageEarlyStage  BusinessStage = "Early Stage"
	StageGrowth      BusinessStage = "Growth"
	StageEstablished BusinessStage = "Established"
)

// ParseBusinessStage matches raw case-insensitively against the supported stages.
func ParseBusinessStage(raw string) (BusinessStage, bool) {
	for _, stage := range []BusinessStage{StageIdea, StageValidation, StageEarlyStage, StageGrowth, StageEstablished} {
		if strings.EqualFold(strings.TrimSpace(raw), string(stage)) {
			return stage, true
		}
	}
	return "", false
}

// FounderProfile is the public startup profile of a founder.
// It is a one-to-one extension of a User with role founder and is keyed by
// that user's id: the founder's user id is also the profile id.
type FounderProfile struct {
	// UserID identifies the owning founder. Primary key.
	UserID int `json:"userId" db:"user_id"`

	// Bio is free-form text about the founder and the startup.
	Bio string `json:"bio" db:"bio"`

	// Location is where the startup operates from.
	Location string `json:"location" db:"location"`

	// BusinessStage is the current stage of the startup.
	BusinessStage BusinessStage `json:"businessStage" db:"business_stage"`

	// FundingStage is a free-form funding description (e.g. "Bootstrapped", "Seed").
	FundingStage string `json:"fundingStage" db:"funding_stage"`

	// Skills are the founder's skills.
	Skills []string `json:"skills" db:"skills"`

	// Interests are the founder's interests.
	Interests []string `json:"interests" db:"interests"`

	// LookingFor is the ordered list of open role labels applications are matched against.
	LookingFor []string `json:"lookingFor" db:"looking_for"`

	// Hiring indicates whether the startup is actively hiring.
	Hiring bool `json:"hiring" db:"hiring"`

	// HiringDetails is free-form text about open positions.
	HiringDetails string `json:"hiringDetails" db:"hiring_details"`

	// ProfilePhoto is the served URL of the profile photo.
	ProfilePhoto string `json:"profilePhoto" db:"profile_photo"`

	// CreatedAt is the timestamp when the profile was first saved.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent save.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FounderProfileView is a profile served together with its owner.
type FounderProfileView struct {
	FounderProfile
	Founder FounderView `json:"founder"`
}
