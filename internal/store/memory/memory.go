// Package memory implements the repository ports in process memory. It backs
// DB_DRIVER=memory runs and the service and handler tests.
package memory

import (
	"slices"
	"time"
)

// Store groups one repository per collection.
type Store struct {
	Users         *UserRepository
	Founders      *FounderProfileRepository
	Products      *ProductRepository
	Questions     *QuestionRepository
	Applications  *ApplicationRepository
	Notifications *NotificationRepository
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		Users:         NewUserRepository(),
		Founders:      NewFounderProfileRepository(),
		Products:      NewProductRepository(),
		Questions:     NewQuestionRepository(),
		Applications:  NewApplicationRepository(),
		Notifications: NewNotificationRepository(),
	}
}

func now() time.Time {
	return time.Now().UTC()
}

func cloneList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return slices.Clone(items)
}

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// newestFirst orders by creation time descending, then id descending.
func newestFirst(aCreated, bCreated time.Time, aID, bID int) int {
	if c := bCreated.Compare(aCreated); c != 0 {
		return c
	}
	return bID - aID
}
