package types

import (
	"strings"
	"time"
)

// QuestionCategory classifies a question.
type QuestionCategory string

// Supported question categories.
const (
	QuestionGeneral   QuestionCategory = "general"
	QuestionBusiness  QuestionCategory = "business"
	QuestionTechnical QuestionCategory = "technical"
	QuestionFunding   QuestionCategory = "funding"
	QuestionCareer    QuestionCategory = "career"
	QuestionOther     QuestionCategory = "other"
)

// ParseQuestionCategory normalizes raw; an empty value selects QuestionGeneral.
func ParseQuestionCategory(raw string) (QuestionCategory, bool) {
	c := QuestionCategory(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case "":
		return QuestionGeneral, true
	case QuestionGeneral, QuestionBusiness, QuestionTechnical, QuestionFunding, QuestionCareer, QuestionOther:
		return c, true
	default:
		return "", false
	}
}

// Question is asked by a user on a founder's profile.
type Question struct {
	// ID is the unique identifier of the question.
	ID int `json:"id" db:"id"`

	// AskerID identifies the user who asked.
	AskerID int `json:"-" db:"asker_id"`

	// FounderID identifies the target founder (user id, which is also the profile id).
	FounderID int `json:"founderId" db:"founder_id"`

	// Text is the question text.
	Text string `json:"question" db:"question"`

	// Answer is the founder's answer, empty until answered.
	Answer string `json:"answer,omitempty" db:"answer"`

	// Category classifies the question.
	Category QuestionCategory `json:"category" db:"category"`

	// Anonymous hides the asker's identity from every served listing.
	Anonymous bool `json:"anonymous" db:"anonymous"`

	// IsAnswered is set once the founder answers.
	IsAnswered bool `json:"isAnswered" db:"is_answered"`

	// AnsweredAt is the time of the latest answer.
	AnsweredAt *time.Time `json:"answeredAt,omitempty" db:"answered_at"`

	// CreatedAt is the timestamp when the question was asked.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit or answer.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// QuestionView is the served representation of a question. Asker is nil
// for anonymous questions regardless of who is reading.
type QuestionView struct {
	Question
	Asker *PublicUser `json:"asker"`
}

// NewQuestionView builds the served representation of q. The asker is
// dropped when q is anonymous.
func NewQuestionView(q Question, asker *User) QuestionView {
	view := QuestionView{Question: q}
	if q.Anonymous || asker == nil {
		return view
	}
	pub := NewPublicUser(*asker)
	view.Asker = &pub
	return view
}
