package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/yieldly/backend/src/models"
)

// PortfolioStore persists portfolios. The db handle is injected; the store
// never owns or closes it.
type PortfolioStore struct {
	db *sql.DB
}

func NewPortfolioStore(db *sql.DB) *PortfolioStore {
	return &PortfolioStore{db: db}
}

// Create inserts a portfolio. The code is normalized to uppercase and must be
// unique across portfolios.
func (s *PortfolioStore) Create(name, code string) (models.Portfolio, error) {
	if name == "" || code == "" {
		return models.Portfolio{}, ErrMissingFields
	}
	code = strings.ToUpper(strings.TrimSpace(code))

	res, err := s.db.Exec("INSERT INTO portfolios (name, code) VALUES (?, ?)", name, code)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			return models.Portfolio{}, ErrDuplicatePortfolioCode
		}
		return models.Portfolio{}, fmt.Errorf("error inserting portfolio: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("error reading new portfolio id: %w", err)
	}
	return models.Portfolio{ID: id, Name: name, Code: code}, nil
}

// List returns all portfolios in display order, then by name.
func (s *PortfolioStore) List() ([]models.Portfolio, error) {
	rows, err := s.db.Query("SELECT id, name, code, display_order, created_at FROM portfolios ORDER BY display_order ASC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("error querying portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.DisplayOrder, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning portfolio row: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over portfolio rows: %w", err)
	}
	return portfolios, nil
}

// Get fetches one portfolio by id.
func (s *PortfolioStore) Get(id int64) (models.Portfolio, error) {
	var p models.Portfolio
	err := s.db.QueryRow("SELECT id, name, code, display_order, created_at FROM portfolios WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &p.Code, &p.DisplayOrder, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Portfolio{}, ErrPortfolioNotFound
	}
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("error querying portfolio %d: %w", id, err)
	}
	return p, nil
}

// GetByCode fetches one portfolio by its (case-insensitive) code.
func (s *PortfolioStore) GetByCode(code string) (models.Portfolio, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var p models.Portfolio
	err := s.db.QueryRow("SELECT id, name, code, display_order, created_at FROM portfolios WHERE code = ?", code).
		Scan(&p.ID, &p.Name, &p.Code, &p.DisplayOrder, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Portfolio{}, ErrPortfolioNotFound
	}
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("error querying portfolio by code %s: %w", code, err)
	}
	return p, nil
}

// Delete removes a portfolio. Transactions and stock info rows go with it via
// the cascading foreign keys.
func (s *PortfolioStore) Delete(id int64) error {
	res, err := s.db.Exec("DELETE FROM portfolios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting portfolio %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking delete result for portfolio %d: %w", id, err)
	}
	if affected == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// UpdateOrder sets the display position used by the portfolio tabs.
func (s *PortfolioStore) UpdateOrder(id, displayOrder int64) error {
	res, err := s.db.Exec("UPDATE portfolios SET display_order = ? WHERE id = ?", displayOrder, id)
	if err != nil {
		return fmt.Errorf("error updating display order for portfolio %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking update result for portfolio %d: %w", id, err)
	}
	if affected == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}
