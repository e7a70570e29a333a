package store

import (
	"context"
	"errors"
	"fmt"

	"resto-admin-services/internal/billing"
	"resto-admin-services/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// GetTaxConfig reads the current tax settings. It is called once per request
// so edits apply to the next request without a restart.
func (s *Store) GetTaxConfig(ctx context.Context) (billing.TaxConfig, error) {
	return getTaxConfig(ctx, s.db)
}

func getTaxConfig(ctx context.Context, q txQuery) (billing.TaxConfig, error) {
	var (
		cfg            billing.TaxConfig
		taxRate        pgtype.Numeric
		serviceTaxRate pgtype.Numeric
	)
	err := q.QueryRow(ctx, `
		select tax_rate, service_tax_rate, tax_name, currency_symbol
		from tax_settings where id = 1
	`).Scan(&taxRate, &serviceTaxRate, &cfg.TaxName, &cfg.CurrencySymbol)
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.TaxConfig{}, ErrNotFound
	}
	if err != nil {
		return billing.TaxConfig{}, fmt.Errorf("load tax settings: %w", err)
	}
	cfg.TaxRate = utils.NumericToDecimal(taxRate)
	cfg.ServiceTaxRate = utils.NumericToDecimal(serviceTaxRate)
	return cfg, nil
}

// SeedTaxConfig inserts cfg only when no settings row exists yet.
func (s *Store) SeedTaxConfig(ctx context.Context, cfg billing.TaxConfig) error {
	_, err := s.db.Exec(ctx, `
		insert into tax_settings (id, tax_rate, service_tax_rate, tax_name, currency_symbol)
		values (1, $1, $2, $3, $4)
		on conflict (id) do nothing
	`, utils.DecimalToNumeric(cfg.TaxRate), utils.DecimalToNumeric(cfg.ServiceTaxRate), cfg.TaxName, cfg.CurrencySymbol)
	if err != nil {
		return fmt.Errorf("seed tax settings: %w", err)
	}
	return nil
}

func (s *Store) UpdateTaxConfig(ctx context.Context, cfg billing.TaxConfig, userID int64) error {
	_, err := s.db.Exec(ctx, `
		insert into tax_settings (id, tax_rate, service_tax_rate, tax_name, currency_symbol, updated_at, updated_by_user_id)
		values (1, $1, $2, $3, $4, now(), $5)
		on conflict (id) do update set
			tax_rate = excluded.tax_rate,
			service_tax_rate = excluded.service_tax_rate,
			tax_name = excluded.tax_name,
			currency_symbol = excluded.currency_symbol,
			updated_at = excluded.updated_at,
			updated_by_user_id = excluded.updated_by_user_id
	`, utils.DecimalToNumeric(cfg.TaxRate), utils.DecimalToNumeric(cfg.ServiceTaxRate), cfg.TaxName, cfg.CurrencySymbol, userID)
	if err != nil {
		return fmt.Errorf("update tax settings: %w", err)
	}
	return nil
}
