package flashcard

import "time"

type Collection struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      uint64    `gorm:"index;not null" json:"-"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:varchar(500)" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Collection) TableName() string { return "collections" }

// Flashcard is a persisted card: either hand-written or an accepted AI
// proposal, in which case source_id/generation_id keep the provenance link.
type Flashcard struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       uint64    `gorm:"index;not null" json:"-"`
	Front        string    `gorm:"type:varchar(500);not null" json:"front"`
	Back         string    `gorm:"type:varchar(1000);not null" json:"back"`
	SourceID     *string   `gorm:"type:varchar(36);index" json:"source_id,omitempty"`
	GenerationID *string   `gorm:"type:varchar(36);index" json:"generation_id,omitempty"`
	CollectionID *string   `gorm:"type:varchar(36);index" json:"collection_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Flashcard) TableName() string { return "flashcards" }
