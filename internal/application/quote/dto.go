package quote

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// FlexibleTime accepts both RFC 3339 timestamps and plain dates on input
// and renders as RFC 3339. Clients autosaving from a date picker send
// "2024-07-01", everything else sends full timestamps.
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null is a no-op per
// encoding/json convention; an empty string is rejected so a cleared date
// picker cannot write the zero time.
func (t *FlexibleTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		return &time.ParseError{Layout: time.RFC3339, Value: s, Message: ": empty date"}
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}

// ==================== Requests ====================

// CreateQuoteRequest represents a request to create a quote with its full tree
type CreateQuoteRequest struct {
	Title     string         `json:"title" binding:"required,min=1,max=100"`
	StartDate FlexibleTime   `json:"start_date" binding:"required"`
	EndDate   FlexibleTime   `json:"end_date" binding:"required"`
	Sections  []SectionInput `json:"sections" binding:"required,min=1,dive"`
}

// SectionInput represents a section in a create or update payload
type SectionInput struct {
	UUID         uuid.UUID       `json:"uuid" binding:"required"`
	Title        string          `json:"title" binding:"required,min=1,max=100"`
	BaseCurrency string          `json:"base_currency" binding:"required,currency"`
	UserCurrency string          `json:"user_currency" binding:"required,currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate" binding:"required"`
	Basis        []BasisInput    `json:"basis" binding:"required,min=1,dive"`
}

// BasisInput represents a basis row in a create or update payload
type BasisInput struct {
	UUID          uuid.UUID       `json:"uuid" binding:"required"`
	Title         string          `json:"title" binding:"required,min=1,max=100"`
	UnitOfMeasure string          `json:"unit_of_measure" binding:"required,min=1,max=100"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit" binding:"required"`
}

// UpdateQuoteRequest represents a partial update. A nil Sections pointer
// leaves the persisted tree untouched; an empty non-nil slice removes
// every section.
type UpdateQuoteRequest struct {
	Title     *string         `json:"title" binding:"omitempty,min=1,max=100"`
	StartDate *FlexibleTime   `json:"start_date"`
	EndDate   *FlexibleTime   `json:"end_date"`
	Sections  *[]SectionInput `json:"sections" binding:"omitempty,dive"`
}

// DraftQuoteRequest is the deep-partial shape accepted by the autosave
// endpoint. Every field is optional; the raw body is what gets stored, so
// this type exists only to reject structurally broken documents.
type DraftQuoteRequest struct {
	Title     *string              `json:"title" binding:"omitempty,min=1,max=100"`
	StartDate *FlexibleTime        `json:"start_date"`
	EndDate   *FlexibleTime        `json:"end_date"`
	Sections  *[]DraftSectionInput `json:"sections" binding:"omitempty,dive"`
}

// DraftSectionInput is a deep-partial section in a draft payload
type DraftSectionInput struct {
	UUID         *uuid.UUID         `json:"uuid"`
	Title        *string            `json:"title" binding:"omitempty,min=1,max=100"`
	BaseCurrency *string            `json:"base_currency" binding:"omitempty,currency"`
	UserCurrency *string            `json:"user_currency" binding:"omitempty,currency"`
	ExchangeRate *decimal.Decimal   `json:"exchange_rate"`
	Basis        *[]DraftBasisInput `json:"basis" binding:"omitempty,dive"`
}

// DraftBasisInput is a deep-partial basis row in a draft payload
type DraftBasisInput struct {
	UUID          *uuid.UUID       `json:"uuid"`
	Title         *string          `json:"title" binding:"omitempty,min=1,max=100"`
	UnitOfMeasure *string          `json:"unit_of_measure" binding:"omitempty,min=1,max=100"`
	Quantity      *decimal.Decimal `json:"quantity"`
	PricePerUnit  *decimal.Decimal `json:"price_per_unit"`
}

// ListQuotesQuery narrows the quote listing by date range.
// Empty fields are treated as absent, not as errors.
type ListQuotesQuery struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// ==================== Responses ====================

// QuoteResponse represents a full quote tree. Sections is a pointer so an
// update that never touched the tree omits the key entirely, while a
// reconciliation that removed everything still renders an empty list.
type QuoteResponse struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	Draft     json.RawMessage    `json:"draft"`
	Sections  *[]SectionResponse `json:"sections,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// SectionResponse represents a section with its full basis rows
type SectionResponse struct {
	ID           uuid.UUID       `json:"id"`
	QuoteID      uuid.UUID       `json:"quote_id"`
	UUID         uuid.UUID       `json:"uuid"`
	Title        string          `json:"title"`
	BaseCurrency string          `json:"base_currency"`
	UserCurrency string          `json:"user_currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Basis        []BasisResponse `json:"basis"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BasisResponse represents a full basis row
type BasisResponse struct {
	ID            uuid.UUID       `json:"id"`
	SectionID     uuid.UUID       `json:"quote_section_id"`
	QuoteID       uuid.UUID       `json:"quote_id"`
	UUID          uuid.UUID       `json:"uuid"`
	Title         string          `json:"title"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuoteSummaryResponse is the lighter list view: full quote columns with a
// reduced projection of the tree underneath.
type QuoteSummaryResponse struct {
	ID        uuid.UUID                `json:"id"`
	Title     string                   `json:"title"`
	StartDate time.Time                `json:"start_date"`
	EndDate   time.Time                `json:"end_date"`
	Draft     json.RawMessage          `json:"draft"`
	Sections  []SectionSummaryResponse `json:"sections"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// SectionSummaryResponse carries only the currency pair and rate
type SectionSummaryResponse struct {
	BaseCurrency string                 `json:"base_currency"`
	UserCurrency string                 `json:"user_currency"`
	ExchangeRate decimal.Decimal        `json:"exchange_rate"`
	Basis        []BasisSummaryResponse `json:"basis"`
}

// BasisSummaryResponse carries only the pricing columns
type BasisSummaryResponse struct {
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// DraftResponse wraps the stored draft document
type DraftResponse struct {
	Draft json.RawMessage `json:"draft"`
}

// ==================== Converters ====================

// ToQuoteResponse converts a domain quote into the full response shape.
// withSections controls whether the sections key appears at all.
func ToQuoteResponse(q *quote.Quote, withSections bool) *QuoteResponse {
	resp := &QuoteResponse{
		ID:        q.ID,
		Title:     q.Title,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Draft:     q.Draft,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
	if withSections {
		sections := make([]SectionResponse, len(q.Sections))
		for i := range q.Sections {
			sections[i] = toSectionResponse(&q.Sections[i])
		}
		resp.Sections = &sections
	}
	return resp
}

func toSectionResponse(s *quote.Section) SectionResponse {
	basis := make([]BasisResponse, len(s.Basis))
	for i, b := range s.Basis {
		basis[i] = BasisResponse{
			ID:            b.ID,
			SectionID:     b.SectionID,
			QuoteID:       b.QuoteID,
			UUID:          b.UUID,
			Title:         b.Title,
			UnitOfMeasure: b.UnitOfMeasure,
			Quantity:      b.Quantity,
			PricePerUnit:  b.PricePerUnit,
			CreatedAt:     b.CreatedAt,
			UpdatedAt:     b.UpdatedAt,
		}
	}
	return SectionResponse{
		ID:           s.ID,
		QuoteID:      s.QuoteID,
		UUID:         s.UUID,
		Title:        s.Title,
		BaseCurrency: s.BaseCurrency,
		UserCurrency: s.UserCurrency,
		ExchangeRate: s.ExchangeRate,
		Basis:        basis,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ToQuoteSummaryResponse converts a domain quote into the list projection.
func ToQuoteSummaryResponse(q *quote.Quote) QuoteSummaryResponse {
	sections := make([]SectionSummaryResponse, len(q.Sections))
	for i, s := range q.Sections {
		basis := make([]BasisSummaryResponse, len(s.Basis))
		for j, b := range s.Basis {
			basis[j] = BasisSummaryResponse{
				PricePerUnit: b.PricePerUnit,
				Quantity:     b.Quantity,
			}
		}
		sections[i] = SectionSummaryResponse{
			BaseCurrency: s.BaseCurrency,
			UserCurrency: s.UserCurrency,
			ExchangeRate: s.ExchangeRate,
			Basis:        basis,
		}
	}
	return QuoteSummaryResponse{
		ID:        q.ID,
		Title:     q.Title,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Draft:     q.Draft,
		Sections:  sections,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}
