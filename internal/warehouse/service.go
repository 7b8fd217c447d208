package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"pharmawarehouse/m/domain"
)

const maxPageLimit = 50

// Service is the transactional inventory core. It holds no in-process
// shared mutable state; all shared state lives in the backing store,
// and every mutating operation runs inside a single transaction.
type Service struct {
	db *sqlx.DB
}

// New constructs a Service over the given store.
func New(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// CreateDrugInput carries the fields for drug creation.
type CreateDrugInput struct {
	Name       string  `json:"name"`
	Code       string  `json:"code"`
	Price      float64 `json:"price"`
	Stock      int64   `json:"stock"`
	CategoryID int64   `json:"category_id"`
}

// CreateCategory validates and persists a new category.
func (s *Service) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	category := domain.Category{Name: name}
	if violations := category.Validate(); len(violations) > 0 {
		return domain.Category{}, validationError(violations)
	}
	category.CreatedAt = domain.NewTimestamp(time.Now())

	if err := insertCategory(ctx, s.db, &category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// CreateDrug resolves the category, then persists a new drug. The code
// must be globally unique; a collision aborts the whole transaction.
func (s *Service) CreateDrug(ctx context.Context, input CreateDrugInput) (domain.Drug, error) {
	drug := domain.Drug{
		Name:       input.Name,
		Code:       input.Code,
		Price:      input.Price,
		Stock:      input.Stock,
		CategoryID: input.CategoryID,
	}
	if violations := drug.Validate(); len(violations) > 0 {
		return domain.Drug{}, validationError(violations)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Drug{}, fmt.Errorf("begin create drug: %w", err)
	}
	defer tx.Rollback()

	if _, err := getCategory(ctx, tx, input.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Drug{}, notFoundError("Category not found")
		}
		return domain.Drug{}, fmt.Errorf("resolve category: %w", err)
	}

	drug.CreatedAt = domain.NewTimestamp(time.Now())
	if err := insertDrug(ctx, tx, &drug); err != nil {
		return domain.Drug{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Drug{}, fmt.Errorf("commit create drug: %w", err)
	}
	return drug, nil
}

// GetDrug looks up a single drug by id.
func (s *Service) GetDrug(ctx context.Context, id int64) (domain.Drug, error) {
	drug, err := getDrug(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Drug{}, notFoundError("Drug not found")
	}
	if err != nil {
		return domain.Drug{}, fmt.Errorf("get drug: %w", err)
	}
	return drug, nil
}

// ListAllDrugs returns every drug unpaginated, in storage-native
// order. Intended for small administrative use.
func (s *Service) ListAllDrugs(ctx context.Context) ([]domain.Drug, error) {
	var rows []drugRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `SELECT `+drugColumns+` FROM drugs`)
	if err != nil {
		return nil, fmt.Errorf("list drugs: %w", err)
	}
	drugs := make([]domain.Drug, len(rows))
	for i, row := range rows {
		drugs[i] = row.toDomain()
	}
	return drugs, nil
}

// ListDrugs returns a page of drugs, newest first. Out-of-range page
// and limit values are silently clamped rather than rejected.
func (s *Service) ListDrugs(ctx context.Context, page, limit int) (domain.PagedResult[domain.Drug], error) {
	page, limit = clampPaging(page, limit)

	var total int64
	if err := sqlx.GetContext(ctx, s.db, &total, `SELECT COUNT(*) FROM drugs`); err != nil {
		return domain.PagedResult[domain.Drug]{}, fmt.Errorf("count drugs: %w", err)
	}

	var rows []drugRow
	err := sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT `+drugColumns+` FROM drugs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return domain.PagedResult[domain.Drug]{}, fmt.Errorf("list drugs: %w", err)
	}

	drugs := make([]domain.Drug, len(rows))
	for i, row := range rows {
		drugs[i] = row.toDomain()
	}
	return domain.NewPagedResult(page, limit, total, drugs), nil
}

// CreateTransfer applies a stock movement to a drug and records it in
// the ledger as one atomic unit: the stock sufficiency check runs
// against the row read inside the same transaction as the eventual
// write, and the write itself is a version compare-and-swap, so two
// concurrent movements on the same drug cannot both apply against the
// same pre-update stock.
func (s *Service) CreateTransfer(ctx context.Context, transferType domain.TransferType, drugID, quantity int64) (domain.Transfer, error) {
	var violations []domain.Violation
	if transferType == "" {
		violations = append(violations, domain.Violation{Path: "type", Message: "must not be null"})
	} else if !transferType.Valid() {
		violations = append(violations, domain.Violation{Path: "type", Message: "must be IN or OUT"})
	}
	if drugID <= 0 {
		violations = append(violations, domain.Violation{Path: "drugId", Message: "must be greater than 0"})
	}
	if quantity <= 0 {
		violations = append(violations, domain.Violation{Path: "quantity", Message: "must be greater than 0"})
	}
	if len(violations) > 0 {
		return domain.Transfer{}, validationError(violations)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Transfer{}, fmt.Errorf("begin create transfer: %w", err)
	}
	defer tx.Rollback()

	drug, err := getDrug(ctx, tx, drugID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transfer{}, notFoundError("Drug not found")
	}
	if err != nil {
		return domain.Transfer{}, fmt.Errorf("load drug: %w", err)
	}

	if transferType == domain.TransferOut && quantity > drug.Stock {
		return domain.Transfer{}, domainRuleError("Insufficient stock")
	}

	now := domain.NewTimestamp(time.Now())
	transfer := domain.Transfer{
		Type:         transferType,
		DrugID:       drug.ID,
		Quantity:     quantity,
		TransferDate: now,
	}
	transfer.CreatedAt = now

	newStock := drug.Stock + transferType.Delta(quantity)
	if err := updateDrugStock(ctx, tx, drug.ID, drug.Version, newStock, now.Time); err != nil {
		return domain.Transfer{}, err
	}
	if err := insertTransfer(ctx, tx, &transfer); err != nil {
		return domain.Transfer{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Transfer{}, fmt.Errorf("commit create transfer: %w", err)
	}
	return transfer, nil
}

// GetTransfers returns a page of ledger entries, newest first,
// restricted by the optional drug-id membership and transfer-date
// range filters. Filters compose with AND; an omitted filter is not
// applied. The total count runs against the same filter.
func (s *Service) GetTransfers(ctx context.Context, page, limit int, drugIDs []int64, from, to *time.Time) (domain.PagedResult[domain.Transfer], error) {
	page, limit = clampPaging(page, limit)

	var (
		clauses []string
		args    []any
	)
	if len(drugIDs) > 0 {
		clauses = append(clauses, "drug_id IN (?)")
		args = append(args, drugIDs)
	}
	if from != nil {
		clauses = append(clauses, "transfer_date >= ?")
		args = append(args, domain.TruncateTime(*from).UnixMicro())
	}
	if to != nil {
		clauses = append(clauses, "transfer_date <= ?")
		args = append(args, domain.TruncateTime(*to).UnixMicro())
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM transfers`+where, args...)
	if err != nil {
		return domain.PagedResult[domain.Transfer]{}, fmt.Errorf("prepare transfer count: %w", err)
	}
	var total int64
	if err := sqlx.GetContext(ctx, s.db, &total, s.db.Rebind(countQuery), countArgs...); err != nil {
		return domain.PagedResult[domain.Transfer]{}, fmt.Errorf("count transfers: %w", err)
	}

	listQuery, listArgs, err := sqlx.In(
		`SELECT `+transferColumns+` FROM transfers`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return domain.PagedResult[domain.Transfer]{}, fmt.Errorf("prepare transfer query: %w", err)
	}
	var rows []transferRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(listQuery), listArgs...); err != nil {
		return domain.PagedResult[domain.Transfer]{}, fmt.Errorf("list transfers: %w", err)
	}

	transfers := make([]domain.Transfer, len(rows))
	for i, row := range rows {
		transfers[i] = row.toDomain()
	}
	return domain.NewPagedResult(page, limit, total, transfers), nil
}

// clampPaging corrects out-of-range paging inputs instead of failing:
// page is at least 1, limit is within [1, 50].
func clampPaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
