package flashcard

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, card *Flashcard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(card).Error
}

// List returns one page of the user's flashcards, newest first, plus the
// total count for pagination.
func (r *Repo) List(ctx context.Context, userID uint64, page, perPage int) ([]Flashcard, int64, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	q := r.db.WithContext(ctx).Model(&Flashcard{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cards []Flashcard
	if err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (r *Repo) Get(ctx context.Context, userID uint64, id string) (*Flashcard, error) {
	var card Flashcard
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *Repo) Update(ctx context.Context, userID uint64, id, front, back string) error {
	return r.firstThen(ctx, userID, id, func(card *Flashcard) error {
		return r.db.WithContext(ctx).Model(card).Updates(map[string]any{
			"front": front,
			"back":  back,
		}).Error
	})
}

// SetCollection moves a card into a collection, or out of any collection
// when collectionID is nil.
func (r *Repo) SetCollection(ctx context.Context, userID uint64, id string, collectionID *string) error {
	return r.firstThen(ctx, userID, id, func(card *Flashcard) error {
		return r.db.WithContext(ctx).Model(card).Update("collection_id", collectionID).Error
	})
}

func (r *Repo) Delete(ctx context.Context, userID uint64, id string) error {
	return r.firstThen(ctx, userID, id, func(card *Flashcard) error {
		return r.db.WithContext(ctx).Delete(card).Error
	})
}

// firstThen loads the card with an ownership check before mutating it, so a
// missing row and a foreign row both surface as ErrRecordNotFound.
func (r *Repo) firstThen(ctx context.Context, userID uint64, id string, fn func(*Flashcard) error) error {
	card, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	return fn(card)
}

// Collections

func (r *Repo) CreateCollection(ctx context.Context, col *Collection) error {
	if col.ID == "" {
		col.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(col).Error
}

func (r *Repo) ListCollections(ctx context.Context, userID uint64) ([]Collection, error) {
	var cols []Collection
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cols).Error; err != nil {
		return nil, err
	}
	return cols, nil
}

func (r *Repo) GetCollection(ctx context.Context, userID uint64, id string) (*Collection, error) {
	var col Collection
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&col).Error; err != nil {
		return nil, err
	}
	return &col, nil
}

func (r *Repo) ListByCollection(ctx context.Context, userID uint64, collectionID string) ([]Flashcard, error) {
	var cards []Flashcard
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND collection_id = ?", userID, collectionID).
		Order("created_at DESC").
		Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *Repo) UpdateCollection(ctx context.Context, userID uint64, id, name, description string) error {
	col, err := r.GetCollection(ctx, userID, id)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(col).Updates(map[string]any{
		"name":        name,
		"description": description,
	}).Error
}

// DeleteCollection removes the collection and detaches its cards.
func (r *Repo) DeleteCollection(ctx context.Context, userID uint64, id string) error {
	col, err := r.GetCollection(ctx, userID, id)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Flashcard{}).
			Where("user_id = ? AND collection_id = ?", userID, id).
			Update("collection_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(col).Error
	})
}
