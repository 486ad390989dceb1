package models

import "time"

// CreatedAtLayout renders timestamps as UTC ISO-8601 with milliseconds,
// e.g. 2026-10-15T08:30:00.123Z.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Entry is one persisted community-help submission. Entries are never
// mutated after creation.
type Entry struct {
	ID          int64  `json:"id" bson:"_id"`
	Role        string `json:"role" bson:"role"`
	Name        string `json:"name" bson:"name"`
	Email       string `json:"email" bson:"email"`
	City        string `json:"city" bson:"city"`
	SupportType string `json:"supportType" bson:"support_type"`
	Message     string `json:"message" bson:"message"`
	CreatedAt   string `json:"createdAt" bson:"created_at"`
}

// CommunityHelpRequest is the decoded signup form. Optional fields default
// to the empty string.
type CommunityHelpRequest struct {
	Role        string `schema:"role" json:"role" validate:"required"`
	Name        string `schema:"name" json:"name" validate:"required"`
	Email       string `schema:"email" json:"email" validate:"required"`
	City        string `schema:"city" json:"city"`
	SupportType string `schema:"support-type" json:"support-type"`
	Message     string `schema:"message" json:"message"`
}

// NewEntry builds an entry for req. The caller supplies the id so that it
// can guarantee uniqueness against the current store contents.
func NewEntry(id int64, req CommunityHelpRequest, now time.Time) Entry {
	return Entry{
		ID:          id,
		Role:        req.Role,
		Name:        req.Name,
		Email:       req.Email,
		City:        req.City,
		SupportType: req.SupportType,
		Message:     req.Message,
		CreatedAt:   FormatCreatedAt(now),
	}
}

func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}
