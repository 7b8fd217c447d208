package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"pharmawarehouse/m/domain"
)

// Timestamps are stored as Unix microseconds so the audit truncation
// rule and transfer-date range filters are exact, and ordering ties
// break deterministically on id.

type auditRow struct {
	ID        int64  `db:"id"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt *int64 `db:"updated_at"`
	Version   int64  `db:"version"`
}

func (r auditRow) toDomain() domain.Audit {
	audit := domain.Audit{
		ID:        r.ID,
		CreatedAt: domain.Timestamp{Time: time.UnixMicro(r.CreatedAt).UTC()},
		Version:   r.Version,
	}
	if r.UpdatedAt != nil {
		updated := domain.Timestamp{Time: time.UnixMicro(*r.UpdatedAt).UTC()}
		audit.UpdatedAt = &updated
	}
	return audit
}

type categoryRow struct {
	auditRow
	Name string `db:"name"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{Audit: r.auditRow.toDomain(), Name: r.Name}
}

type drugRow struct {
	auditRow
	Name       string  `db:"name"`
	Code       string  `db:"code"`
	Price      float64 `db:"price"`
	Stock      int64   `db:"stock"`
	CategoryID int64   `db:"category_id"`
}

func (r drugRow) toDomain() domain.Drug {
	return domain.Drug{
		Audit:      r.auditRow.toDomain(),
		Name:       r.Name,
		Code:       r.Code,
		Price:      r.Price,
		Stock:      r.Stock,
		CategoryID: r.CategoryID,
	}
}

type transferRow struct {
	auditRow
	Type         string `db:"type"`
	DrugID       int64  `db:"drug_id"`
	Quantity     int64  `db:"quantity"`
	TransferDate int64  `db:"transfer_date"`
}

func (r transferRow) toDomain() domain.Transfer {
	return domain.Transfer{
		Audit:        r.auditRow.toDomain(),
		Type:         domain.TransferType(r.Type),
		DrugID:       r.DrugID,
		Quantity:     r.Quantity,
		TransferDate: domain.Timestamp{Time: time.UnixMicro(r.TransferDate).UTC()},
	}
}

const drugColumns = `id, name, code, price, stock, category_id, created_at, updated_at, version`

const transferColumns = `id, type, drug_id, quantity, transfer_date, created_at, updated_at, version`

func insertCategory(ctx context.Context, ext sqlx.ExtContext, category *domain.Category) error {
	res, err := ext.ExecContext(ctx,
		`INSERT INTO categories (name, created_at, version) VALUES (?, ?, 0)`,
		category.Name, category.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	category.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("category id: %w", err)
	}
	return nil
}

func getCategory(ctx context.Context, ext sqlx.ExtContext, id int64) (domain.Category, error) {
	var row categoryRow
	err := sqlx.GetContext(ctx, ext, &row,
		`SELECT id, name, created_at, updated_at, version FROM categories WHERE id = ?`, id)
	if err != nil {
		return domain.Category{}, err
	}
	return row.toDomain(), nil
}

func insertDrug(ctx context.Context, ext sqlx.ExtContext, drug *domain.Drug) error {
	res, err := ext.ExecContext(ctx,
		`INSERT INTO drugs (name, code, price, stock, category_id, created_at, version) VALUES (?, ?, ?, ?, ?, ?, 0)`,
		drug.Name, drug.Code, drug.Price, drug.Stock, drug.CategoryID, drug.CreatedAt.UnixMicro())
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateError("drug code already exists")
		}
		return fmt.Errorf("insert drug: %w", err)
	}
	drug.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("drug id: %w", err)
	}
	return nil
}

func getDrug(ctx context.Context, ext sqlx.ExtContext, id int64) (domain.Drug, error) {
	var row drugRow
	err := sqlx.GetContext(ctx, ext, &row,
		`SELECT `+drugColumns+` FROM drugs WHERE id = ?`, id)
	if err != nil {
		return domain.Drug{}, err
	}
	return row.toDomain(), nil
}

// updateDrugStock persists a new stock value as a compare-and-swap on
// the row's version: update where id and version match, else report a
// conflict. Exactly one of two concurrent writers that read the same
// version can succeed.
func updateDrugStock(ctx context.Context, ext sqlx.ExtContext, id, version, stock int64, updatedAt time.Time) error {
	res, err := ext.ExecContext(ctx,
		`UPDATE drugs SET stock = ?, updated_at = ?, version = version + 1 WHERE id = ? AND version = ?`,
		stock, updatedAt.UnixMicro(), id, version)
	if err != nil {
		return fmt.Errorf("update drug stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update drug stock: %w", err)
	}
	if affected == 0 {
		return conflictError("drug was modified concurrently")
	}
	return nil
}

func insertTransfer(ctx context.Context, ext sqlx.ExtContext, transfer *domain.Transfer) error {
	res, err := ext.ExecContext(ctx,
		`INSERT INTO transfers (type, drug_id, quantity, transfer_date, created_at, version) VALUES (?, ?, ?, ?, ?, 0)`,
		string(transfer.Type), transfer.DrugID, transfer.Quantity,
		transfer.TransferDate.UnixMicro(), transfer.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	transfer.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("transfer id: %w", err)
	}
	return nil
}

// isUniqueViolation matches the sqlite driver's constraint error text;
// the driver reports breaches as "UNIQUE constraint failed: <table>.<column>".
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
