package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// QuoteModel is the persistence model for the Quote aggregate root.
type QuoteModel struct {
	BaseModel
	Title     string              `gorm:"type:varchar(100);not null"`
	StartDate time.Time           `gorm:"not null;index"`
	EndDate   time.Time           `gorm:"not null"`
	Draft     JSONDocument        `gorm:"type:jsonb"`
	Sections  []QuoteSectionModel `gorm:"foreignKey:QuoteID;references:ID"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quote"
}

// QuoteSectionModel is the persistence model for a quote section.
// The uuid column carries the client-assigned reconciliation identity
// and is unique across all sections.
type QuoteSectionModel struct {
	BaseModel
	QuoteID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	UUID         uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	Title        string              `gorm:"type:varchar(100);not null"`
	BaseCurrency string              `gorm:"type:varchar(3);not null"`
	UserCurrency string              `gorm:"type:varchar(3);not null"`
	ExchangeRate decimal.Decimal     `gorm:"type:decimal(18,6);not null"`
	Basis        []SectionBasisModel `gorm:"foreignKey:SectionID;references:ID"`
}

// TableName returns the table name for GORM
func (QuoteSectionModel) TableName() string {
	return "quote_section"
}

// SectionBasisModel is the persistence model for a basis row. It carries
// both the owning section and a quote_id shortcut for quote-scoped queries.
type SectionBasisModel struct {
	BaseModel
	SectionID     uuid.UUID       `gorm:"column:quote_section_id;type:uuid;not null;index"`
	QuoteID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	UUID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Title         string          `gorm:"type:varchar(100);not null"`
	UnitOfMeasure string          `gorm:"type:varchar(100);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PricePerUnit  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SectionBasisModel) TableName() string {
	return "section_basis"
}

// ToDomain converts the persistence model to a domain Quote entity.
func (m *QuoteModel) ToDomain() *quote.Quote {
	q := &quote.Quote{
		ID:        m.ID,
		Title:     m.Title,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Draft:     json.RawMessage(m.Draft),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Sections:  make([]quote.Section, len(m.Sections)),
	}
	for i, s := range m.Sections {
		q.Sections[i] = *s.ToDomain()
	}
	return q
}

// FromDomain populates the persistence model from a domain Quote entity.
func (m *QuoteModel) FromDomain(q *quote.Quote) {
	m.ID = q.ID
	m.CreatedAt = q.CreatedAt
	m.UpdatedAt = q.UpdatedAt
	m.Title = q.Title
	m.StartDate = q.StartDate
	m.EndDate = q.EndDate
	m.Draft = JSONDocument(q.Draft)
	m.Sections = make([]QuoteSectionModel, len(q.Sections))
	for i := range q.Sections {
		m.Sections[i].FromDomain(&q.Sections[i])
	}
}

// ToDomain converts the persistence model to a domain Section entity.
func (m *QuoteSectionModel) ToDomain() *quote.Section {
	s := &quote.Section{
		ID:           m.ID,
		QuoteID:      m.QuoteID,
		UUID:         m.UUID,
		Title:        m.Title,
		BaseCurrency: m.BaseCurrency,
		UserCurrency: m.UserCurrency,
		ExchangeRate: m.ExchangeRate,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Basis:        make([]quote.Basis, len(m.Basis)),
	}
	for i, b := range m.Basis {
		s.Basis[i] = *b.ToDomain()
	}
	return s
}

// FromDomain populates the persistence model from a domain Section entity.
func (m *QuoteSectionModel) FromDomain(s *quote.Section) {
	m.ID = s.ID
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
	m.QuoteID = s.QuoteID
	m.UUID = s.UUID
	m.Title = s.Title
	m.BaseCurrency = s.BaseCurrency
	m.UserCurrency = s.UserCurrency
	m.ExchangeRate = s.ExchangeRate
	m.Basis = make([]SectionBasisModel, len(s.Basis))
	for i := range s.Basis {
		m.Basis[i].FromDomain(&s.Basis[i])
	}
}

// ToDomain converts the persistence model to a domain Basis entity.
func (m *SectionBasisModel) ToDomain() *quote.Basis {
	return &quote.Basis{
		ID:            m.ID,
		SectionID:     m.SectionID,
		QuoteID:       m.QuoteID,
		UUID:          m.UUID,
		Title:         m.Title,
		UnitOfMeasure: m.UnitOfMeasure,
		Quantity:      m.Quantity,
		PricePerUnit:  m.PricePerUnit,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Basis entity.
func (m *SectionBasisModel) FromDomain(b *quote.Basis) {
	m.ID = b.ID
	m.CreatedAt = b.CreatedAt
	m.UpdatedAt = b.UpdatedAt
	m.SectionID = b.SectionID
	m.QuoteID = b.QuoteID
	m.UUID = b.UUID
	m.Title = b.Title
	m.UnitOfMeasure = b.UnitOfMeasure
	m.Quantity = b.Quantity
	m.PricePerUnit = b.PricePerUnit
}
