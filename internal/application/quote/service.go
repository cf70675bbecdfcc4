package quote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
)

// QuoteService handles quote business operations
type QuoteService struct {
	repo quote.Repository
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(repo quote.Repository) *QuoteService {
	return &QuoteService{repo: repo}
}

// List returns the quotes matching the optional date range in the reduced
// list projection, ordered ascending by start date.
func (s *QuoteService) List(ctx context.Context, query ListQuotesQuery) ([]QuoteSummaryResponse, error) {
	quotes, err := s.repo.FindAll(ctx, quote.ListFilter{
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]QuoteSummaryResponse, len(quotes))
	for i := range quotes {
		summaries[i] = ToQuoteSummaryResponse(&quotes[i])
	}
	return summaries, nil
}

// GetByID returns the full quote tree
func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*QuoteResponse, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToQuoteResponse(q, true), nil
}

// Create builds the aggregate from the request and persists the whole tree
// in one transaction.
func (s *QuoteService) Create(ctx context.Context, req CreateQuoteRequest) (*QuoteResponse, error) {
	q, err := quote.NewQuote(req.Title, req.StartDate.Time, req.EndDate.Time)
	if err != nil {
		return nil, err
	}

	for i := range req.Sections {
		section, err := buildSection(&req.Sections[i])
		if err != nil {
			return nil, err
		}
		q.AddSection(section)
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return ToQuoteResponse(q, true), nil
}

// Update applies a partial patch. When the request carries a sections list
// the persisted tree is reconciled against it; otherwise only the quote
// row changes and the response omits the sections key.
func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, req UpdateQuoteRequest) (*QuoteResponse, error) {
	patch := quote.QuotePatch{
		Title: req.Title,
	}
	if req.StartDate != nil {
		patch.StartDate = &req.StartDate.Time
	}
	if req.EndDate != nil {
		patch.EndDate = &req.EndDate.Time
	}

	if req.Sections != nil {
		sections := make([]quote.Section, 0, len(*req.Sections))
		for i := range *req.Sections {
			section, err := buildSection(&(*req.Sections)[i])
			if err != nil {
				return nil, err
			}
			sections = append(sections, *section)
		}
		patch.Sections = &sections
	}

	q, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return ToQuoteResponse(q, req.Sections != nil), nil
}

// SaveDraft stores the raw autosave document verbatim and echoes back
// what was persisted.
func (s *QuoteService) SaveDraft(ctx context.Context, id uuid.UUID, draft json.RawMessage) (*DraftResponse, error) {
	stored, err := s.repo.SaveDraft(ctx, id, draft)
	if err != nil {
		return nil, err
	}
	return &DraftResponse{Draft: stored}, nil
}

// buildSection runs the payload through the domain constructors, which
// enforce currencies, positivity and the equal-currency rate override.
func buildSection(in *SectionInput) (*quote.Section, error) {
	section, err := quote.NewSection(in.UUID, in.Title, in.BaseCurrency, in.UserCurrency, in.ExchangeRate)
	if err != nil {
		return nil, err
	}

	for _, b := range in.Basis {
		if !b.Quantity.IsInteger() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a whole number")
		}
		basis, err := quote.NewBasis(b.UUID, b.Title, b.UnitOfMeasure, b.Quantity.IntPart(), b.PricePerUnit)
		if err != nil {
			return nil, err
		}
		section.AddBasis(basis)
	}
	return section, nil
}

// ParseListQuery turns raw query strings into a date filter. Empty strings
// are treated as absent. Both RFC 3339 timestamps and plain dates parse.
func ParseListQuery(startDate, endDate string) (ListQuotesQuery, error) {
	query := ListQuotesQuery{}

	if startDate != "" {
		t, err := parseDate(startDate)
		if err != nil {
			return query, shared.NewValidationError("start_date", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
		query.StartDate = &t
	}
	if endDate != "" {
		t, err := parseDate(endDate)
		if err != nil {
			return query, shared.NewValidationError("end_date", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		}
		query.EndDate = &t
	}
	return query, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
