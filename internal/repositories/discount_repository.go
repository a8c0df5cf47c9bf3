package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

type DiscountRepo struct {
	DB *sql.DB
}

// Lookup resolves a discount code. Codes are case-insensitive.
func (r DiscountRepo) Lookup(ctx context.Context, code string) (models.DiscountRule, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.DiscountRule{}, domain.ValidationError{Field: "discountCode", Msg: "empty code"}
	}
	if r.DB == nil {
		return models.DiscountRule{}, domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}

	var (
		d         models.DiscountRule
		validFrom sql.NullTime
		validTo   sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT code, amount, percent, valid_from, valid_to, is_active
		FROM discount_codes
		WHERE UPPER(code) = ?
		LIMIT 1`, code).Scan(&d.Code, &d.Amount, &d.Percent, &validFrom, &validTo, &d.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DiscountRule{}, domain.NotFoundError{Resource: "discount code", Err: err}
		}
		return models.DiscountRule{}, intdb.WrapStoreError("lookup discount", err)
	}
	d.Code = strings.ToUpper(d.Code)
	d.ValidFrom = intdb.TimePtr(validFrom)
	d.ValidTo = intdb.TimePtr(validTo)
	return d, nil
}
