package quote

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const maxTitleLength = 100

// Quote is the aggregate root: a priced estimate composed of sections,
// each carrying one or more basis rows (quantity x unit price line items).
type Quote struct {
	ID        uuid.UUID
	Title     string
	StartDate time.Time
	EndDate   time.Time
	// Draft holds an unreconciled candidate tree saved for autosave.
	// It is opaque to the domain and cleared whenever an update commits.
	Draft     json.RawMessage
	Sections  []Section
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Section groups basis rows under a quote and carries the currency pair
// used to convert line amounts from the base currency to the user's currency.
type Section struct {
	ID      uuid.UUID
	QuoteID uuid.UUID
	// UUID is assigned by the client and is the only identity used to match
	// an incoming section against a persisted one across update cycles.
	UUID         uuid.UUID
	Title        string
	BaseCurrency string
	UserCurrency string
	ExchangeRate decimal.Decimal
	Basis        []Basis
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Basis is a single line item under a section.
type Basis struct {
	ID        uuid.UUID
	SectionID uuid.UUID
	QuoteID   uuid.UUID
	// UUID is the client-assigned reconciliation identity, like Section.UUID.
	UUID          uuid.UUID
	Title         string
	UnitOfMeasure string
	Quantity      decimal.Decimal
	PricePerUnit  decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QuotePatch carries a partial update. Nil fields are left untouched.
// A nil Sections pointer means the section tree is not reconciled at all;
// a non-nil pointer to an empty slice removes every section.
type QuotePatch struct {
	Title     *string
	StartDate *time.Time
	EndDate   *time.Time
	Sections  *[]Section
}

// NewQuote creates a quote without sections. Sections are attached by the
// caller so that create and update paths share the same section constructor.
func NewQuote(title string, startDate, endDate time.Time) (*Quote, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Quote{
		ID:        uuid.New(),
		Title:     title,
		StartDate: startDate,
		EndDate:   endDate,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewSection creates a section. When the user currency equals the base
// currency the exchange rate is forced to exactly 1, whatever was submitted.
func NewSection(clientUUID uuid.UUID, title, baseCurrency, userCurrency string, exchangeRate decimal.Decimal) (*Section, error) {
	if clientUUID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_UUID", "Section uuid cannot be empty")
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if !IsSupportedCurrency(baseCurrency) {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unknown base currency code: "+baseCurrency)
	}
	if !IsSupportedCurrency(userCurrency) {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unknown user currency code: "+userCurrency)
	}
	if exchangeRate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive")
	}
	if baseCurrency == userCurrency {
		exchangeRate = decimal.NewFromInt(1)
	}

	now := time.Now().UTC()
	return &Section{
		ID:           uuid.New(),
		UUID:         clientUUID,
		Title:        title,
		BaseCurrency: baseCurrency,
		UserCurrency: userCurrency,
		ExchangeRate: exchangeRate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewBasis creates a basis row. Quantity is a whole number of units.
func NewBasis(clientUUID uuid.UUID, title, unitOfMeasure string, quantity int64, pricePerUnit decimal.Decimal) (*Basis, error) {
	if clientUUID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_UUID", "Basis uuid cannot be empty")
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if unitOfMeasure == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit of measure cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}
	if pricePerUnit.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price per unit must be positive")
	}

	now := time.Now().UTC()
	return &Basis{
		ID:            uuid.New(),
		UUID:          clientUUID,
		Title:         title,
		UnitOfMeasure: unitOfMeasure,
		Quantity:      decimal.NewFromInt(quantity),
		PricePerUnit:  pricePerUnit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// AddSection attaches a section to the quote, wiring the ownership key.
func (q *Quote) AddSection(section *Section) {
	section.QuoteID = q.ID
	for i := range section.Basis {
		section.Basis[i].QuoteID = q.ID
		section.Basis[i].SectionID = section.ID
	}
	q.Sections = append(q.Sections, *section)
}

// AddBasis attaches a basis row to the section, wiring the ownership keys.
func (s *Section) AddBasis(basis *Basis) {
	basis.SectionID = s.ID
	basis.QuoteID = s.QuoteID
	s.Basis = append(s.Basis, *basis)
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > maxTitleLength {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 100 characters")
	}
	return nil
}
