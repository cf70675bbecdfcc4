package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormQuoteRepository implements quote.Repository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindAll finds quotes matching the filter, full trees preloaded,
// ordered ascending by start date
func (r *GormQuoteRepository) FindAll(ctx context.Context, filter quote.ListFilter) ([]quote.Quote, error) {
	var rows []models.QuoteModel
	query := r.db.WithContext(ctx).
		Preload("Sections", sortByCreation).
		Preload("Sections.Basis", sortByCreation).
		Order("start_date ASC")

	if filter.StartDate != nil {
		query = query.Where("start_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("end_date <= ?", *filter.EndDate)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	quotes := make([]quote.Quote, len(rows))
	for i := range rows {
		quotes[i] = *rows[i].ToDomain()
	}
	return quotes, nil
}

// FindByID finds a quote by its ID with the full section/basis tree
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	var m models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Sections", sortByCreation).
		Preload("Sections.Basis", sortByCreation).
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create persists a complete new quote tree in one transaction.
// Children are inserted parent first so foreign keys resolve.
func (r *GormQuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var qm models.QuoteModel
		qm.FromDomain(q)
		sections := qm.Sections
		qm.Sections = nil

		if err := tx.Create(&qm).Error; err != nil {
			return err
		}

		for i := range sections {
			sm := sections[i]
			basis := sm.Basis
			sm.Basis = nil
			sm.QuoteID = qm.ID

			if err := tx.Create(&sm).Error; err != nil {
				return err
			}

			for j := range basis {
				bm := basis[j]
				bm.SectionID = sm.ID
				bm.QuoteID = qm.ID
				if err := tx.Create(&bm).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// Update applies a partial patch to the quote row and, when the patch
// carries a section list, reconciles the persisted tree against it.
// The quote row always gets a fresh updated_at and its draft cleared;
// committing an update supersedes any pending autosave.
func (r *GormQuoteRepository) Update(ctx context.Context, id uuid.UUID, patch quote.QuotePatch) (*quote.Quote, error) {
	var result *quote.Quote

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		values := map[string]interface{}{
			"updated_at": now,
			"draft":      nil,
		}
		if patch.Title != nil {
			values["title"] = *patch.Title
		}
		if patch.StartDate != nil {
			values["start_date"] = *patch.StartDate
		}
		if patch.EndDate != nil {
			values["end_date"] = *patch.EndDate
		}

		res := tx.Model(&models.QuoteModel{}).Where("id = ?", id).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if patch.Sections != nil {
			if err := r.reconcileSections(tx, id, *patch.Sections, now); err != nil {
				return err
			}
		}

		query := tx
		if patch.Sections != nil {
			query = query.
				Preload("Sections", sortByCreation).
				Preload("Sections.Basis", sortByCreation)
		}

		var m models.QuoteModel
		if err := query.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		result = m.ToDomain()
		if patch.Sections == nil {
			result.Sections = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SaveDraft overwrites the quote's draft document verbatim and returns
// the value as stored. No section or basis row is touched.
func (r *GormQuoteRepository) SaveDraft(ctx context.Context, id uuid.UUID, draft json.RawMessage) (json.RawMessage, error) {
	var stored json.RawMessage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// UpdateColumn keeps updated_at untouched; an autosave is not an edit.
		res := tx.Model(&models.QuoteModel{}).Where("id = ?", id).
			UpdateColumn("draft", models.JSONDocument(draft))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		var m models.QuoteModel
		if err := tx.Select("id", "draft").First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		stored = json.RawMessage(m.Draft)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// reconcileSections diffs the incoming sections against the persisted ones
// by client uuid: sections missing from the payload are removed together
// with their basis rows, the rest are upserted, then each section's basis
// rows are reconciled the same way. An empty incoming list removes every
// section under the quote.
func (r *GormQuoteRepository) reconcileSections(tx *gorm.DB, quoteID uuid.UUID, sections []quote.Section, now time.Time) error {
	keep := make([]uuid.UUID, len(sections))
	for i, s := range sections {
		keep[i] = s.UUID
	}

	// Collect the primary keys of sections being dropped so their basis
	// rows can be removed before the rows they reference.
	dropQuery := tx.Model(&models.QuoteSectionModel{}).Where("quote_id = ?", quoteID)
	if len(keep) > 0 {
		dropQuery = dropQuery.Where("uuid NOT IN ?", keep)
	}
	var dropped []uuid.UUID
	if err := dropQuery.Pluck("id", &dropped).Error; err != nil {
		return err
	}
	if len(dropped) > 0 {
		if err := tx.Where("quote_section_id IN ?", dropped).
			Delete(&models.SectionBasisModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", dropped).
			Delete(&models.QuoteSectionModel{}).Error; err != nil {
			return err
		}
	}

	for i := range sections {
		s := &sections[i]

		sm := models.QuoteSectionModel{
			BaseModel: models.BaseModel{
				ID:        s.ID,
				CreatedAt: s.CreatedAt,
				UpdatedAt: now,
			},
			QuoteID:      quoteID,
			UUID:         s.UUID,
			Title:        s.Title,
			BaseCurrency: s.BaseCurrency,
			UserCurrency: s.UserCurrency,
			ExchangeRate: s.ExchangeRate,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "uuid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quote_id":      quoteID,
				"title":         s.Title,
				"base_currency": s.BaseCurrency,
				"user_currency": s.UserCurrency,
				"exchange_rate": s.ExchangeRate,
				"updated_at":    now,
			}),
		}).Create(&sm).Error; err != nil {
			return err
		}

		// Re-read the row to learn the surviving primary key; an upsert
		// that hit an existing section keeps that section's id.
		var persisted models.QuoteSectionModel
		if err := tx.First(&persisted, "uuid = ?", s.UUID).Error; err != nil {
			return err
		}

		if err := r.reconcileBasis(tx, quoteID, persisted.ID, s.Basis, now); err != nil {
			return err
		}
	}

	return nil
}

// reconcileBasis applies the same uuid diff to one section's basis rows.
// Upserts overwrite only the content columns, never the ownership keys of
// a row that already exists.
func (r *GormQuoteRepository) reconcileBasis(tx *gorm.DB, quoteID, sectionID uuid.UUID, rows []quote.Basis, now time.Time) error {
	keep := make([]uuid.UUID, len(rows))
	for i, b := range rows {
		keep[i] = b.UUID
	}

	deleteQuery := tx.Where("quote_section_id = ?", sectionID)
	if len(keep) > 0 {
		deleteQuery = deleteQuery.Where("uuid NOT IN ?", keep)
	}
	if err := deleteQuery.Delete(&models.SectionBasisModel{}).Error; err != nil {
		return err
	}

	for i := range rows {
		b := &rows[i]

		bm := models.SectionBasisModel{
			BaseModel: models.BaseModel{
				ID:        b.ID,
				CreatedAt: b.CreatedAt,
				UpdatedAt: now,
			},
			SectionID:     sectionID,
			QuoteID:       quoteID,
			UUID:          b.UUID,
			Title:         b.Title,
			UnitOfMeasure: b.UnitOfMeasure,
			Quantity:      b.Quantity,
			PricePerUnit:  b.PricePerUnit,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "uuid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"title":           b.Title,
				"unit_of_measure": b.UnitOfMeasure,
				"quantity":        b.Quantity,
				"price_per_unit":  b.PricePerUnit,
				"updated_at":      now,
			}),
		}).Create(&bm).Error; err != nil {
			return err
		}
	}

	return nil
}

func sortByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// Ensure GormQuoteRepository implements the repository interface
var _ quote.Repository = (*GormQuoteRepository)(nil)
