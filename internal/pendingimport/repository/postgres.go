package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avelore/consignpos-import-service/internal/httputil"
	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/internal/pendingimport/dto"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertQuery = `
    INSERT INTO pending_imports (
        id, merchant_id, name, description, price, min_price, sku, category,
        brand, condition, image_url, source, source_reference,
        consignor_id, consignor_name, consignor_number, status,
        imported_at, imported_item_id, notes, received_date, location,
        created_at, updated_at
    )
    VALUES (
        :id, :merchant_id, :name, :description, :price, :min_price, :sku, :category,
        :brand, :condition, :image_url, :source, :source_reference,
        :consignor_id, :consignor_name, :consignor_number, :status,
        :imported_at, :imported_item_id, :notes, :received_date, :location,
        :created_at, :updated_at
    )
`

func (r *PGRepository) Stage(ctx context.Context, items []model.PendingImportItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin stage tx")
	}
	defer tx.Rollback()

	for i := range items {
		if _, err := tx.NamedExecContext(ctx, insertQuery, &items[i]); err != nil {
			return errors.Wrapf(err, "stage item %s", items[i].ID)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ListFilters) ([]model.PendingImportItem, int, error) {
	conditions := []string{"merchant_id = ?"}
	args := []interface{}{f.MerchantID}

	if f.SourceReference != "" {
		conditions = append(conditions, "source_reference = ?")
		args = append(args, f.SourceReference)
	}
	if f.Search != "" {
		conditions = append(conditions, "(name ILIKE ? OR sku ILIKE ? OR brand ILIKE ? OR description ILIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if f.ConsignorID != "" {
		conditions = append(conditions, "consignor_id = ?")
		args = append(args, f.ConsignorID)
	}
	if f.PriceMin != nil {
		conditions = append(conditions, "price >= ?")
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		conditions = append(conditions, "price <= ?")
		args = append(args, *f.PriceMax)
	}
	if len(f.Statuses) > 0 {
		conditions = append(conditions, "status IN (?)")
		args = append(args, f.Statuses)
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.In("SELECT count(*) FROM pending_imports"+whereClause, args...)
	if err != nil {
		return nil, 0, err
	}
	countQuery = r.DB.Rebind(countQuery)

	var count int
	if err := r.DB.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	// Insertion order is the default presentation order.
	query := "SELECT * FROM pending_imports" + whereClause + " ORDER BY created_at ASC, id ASC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	query, queryArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, 0, err
	}
	query = r.DB.Rebind(query)

	var items []model.PendingImportItem
	err = r.DB.SelectContext(ctx, &items, query, queryArgs...)
	return items, count, err
}

func (r *PGRepository) FindByIDs(ctx context.Context, merchantID string, ids []string) ([]model.PendingImportItem, error) {
	if len(ids) == 0 {
		return []model.PendingImportItem{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT * FROM pending_imports WHERE merchant_id = ? AND id IN (?) ORDER BY created_at ASC, id ASC`,
		merchantID, ids,
	)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var items []model.PendingImportItem
	err = r.DB.SelectContext(ctx, &items, query, args...)
	return items, err
}

func (r *PGRepository) Patch(ctx context.Context, merchantID, id string, input *dto.PatchInput) (*model.PendingImportItem, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin patch tx")
	}
	defer tx.Rollback()

	var item model.PendingImportItem
	err = tx.GetContext(ctx, &item,
		r.DB.Rebind(`SELECT * FROM pending_imports WHERE merchant_id = ? AND id = ? FOR UPDATE`),
		merchantID, id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(httputil.ErrNotFound, "pending import %s", id)
		}
		return nil, err
	}

	if item.Status.IsTerminal() {
		return nil, errors.Wrapf(httputil.ErrConflict, "pending import %s is %s", id, item.Status)
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}
	if input.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *input.Price)
		item.Price = *input.Price
	}
	if input.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *input.Category)
		item.Category = input.Category
	}
	if input.Condition != nil {
		sets = append(sets, "condition = ?")
		args = append(args, *input.Condition)
		item.Condition = model.ItemCondition(*input.Condition)
	}
	if input.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *input.Notes)
		item.Notes = input.Notes
	}

	query := "UPDATE pending_imports SET " + strings.Join(sets, ", ") + " WHERE merchant_id = ? AND id = ?"
	args = append(args, merchantID, id)

	if _, err := tx.ExecContext(ctx, r.DB.Rebind(query), args...); err != nil {
		return nil, errors.Wrapf(err, "patch pending import %s", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *PGRepository) SoftDelete(ctx context.Context, merchantID, id string) error {
	var status model.ImportStatus
	err := r.DB.GetContext(ctx, &status,
		r.DB.Rebind(`SELECT status FROM pending_imports WHERE merchant_id = ? AND id = ?`),
		merchantID, id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(httputil.ErrNotFound, "pending import %s", id)
		}
		return err
	}
	if status == model.StatusImported {
		return errors.Wrapf(httputil.ErrConflict, "pending import %s was already imported", id)
	}

	_, err = r.DB.ExecContext(ctx,
		r.DB.Rebind(`UPDATE pending_imports SET status = ?, updated_at = ? WHERE merchant_id = ? AND id = ?`),
		model.StatusDeleted, time.Now(), merchantID, id,
	)
	return errors.Wrapf(err, "delete pending import %s", id)
}

func (r *PGRepository) AssignConsignor(ctx context.Context, merchantID string, ids []string, c model.Consignor, verify bool) error {
	if len(ids) == 0 {
		return nil
	}

	status := model.StatusAssigned
	if verify {
		status = model.StatusVerified
	}

	query, args, err := sqlx.In(`
        UPDATE pending_imports
        SET consignor_id = ?, consignor_name = ?, consignor_number = ?,
            status = ?, updated_at = ?
        WHERE merchant_id = ? AND id IN (?)
          AND status IN (?)
    `, c.ID, c.Name, c.Code, status, time.Now(), merchantID, ids,
		[]model.ImportStatus{model.StatusPending, model.StatusAssigned, model.StatusVerified})
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, r.DB.Rebind(query), args...)
	return errors.Wrap(err, "assign consignor")
}

func (r *PGRepository) SetVerified(ctx context.Context, merchantID, id string, verified bool) error {
	var res sql.Result
	var err error

	if verified {
		res, err = r.DB.ExecContext(ctx, r.DB.Rebind(`
            UPDATE pending_imports SET status = ?, updated_at = ?
            WHERE merchant_id = ? AND id = ? AND status = ? AND consignor_id IS NOT NULL
        `), model.StatusVerified, time.Now(), merchantID, id, model.StatusAssigned)
	} else {
		res, err = r.DB.ExecContext(ctx, r.DB.Rebind(`
            UPDATE pending_imports SET status = ?, updated_at = ?
            WHERE merchant_id = ? AND id = ? AND status = ?
        `), model.StatusAssigned, time.Now(), merchantID, id, model.StatusVerified)
	}
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the item is gone or the transition guard rejected it.
		var item model.PendingImportItem
		err := r.DB.GetContext(ctx, &item,
			r.DB.Rebind(`SELECT * FROM pending_imports WHERE merchant_id = ? AND id = ?`),
			merchantID, id,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(httputil.ErrNotFound, "pending import %s", id)
		}
		if err != nil {
			return err
		}
		if verified && !item.HasConsignor() {
			return errors.Wrapf(httputil.ErrPreconditionFailed, "pending import %s has no consignor", id)
		}
		return errors.Wrapf(httputil.ErrPreconditionFailed, "pending import %s is %s", id, item.Status)
	}
	return nil
}

func (r *PGRepository) MarkImported(ctx context.Context, merchantID string, records []dto.ImportedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin import tx")
	}
	defer tx.Rollback()

	// Imported is only reachable from Verified. Anything else is left alone.
	query := r.DB.Rebind(`
        UPDATE pending_imports
        SET status = ?, imported_at = ?, imported_item_id = ?, updated_at = ?
        WHERE merchant_id = ? AND id = ? AND status = ?
    `)
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, query,
			model.StatusImported, rec.ImportedAt, rec.ItemID, time.Now(),
			merchantID, rec.PendingImportID, model.StatusVerified,
		); err != nil {
			return errors.Wrapf(err, "mark imported %s", rec.PendingImportID)
		}
	}

	return tx.Commit()
}
