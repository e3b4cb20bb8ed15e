package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const viewColumns = `id, resource_id, view_type, title, description, config, position, created_at, updated_at`

func scanView(row rowScanner) (*ResourceView, error) {
	v := &ResourceView{}
	var config string
	if err := row.Scan(&v.ID, &v.ResourceID, &v.ViewType, &v.Title, &v.Description,
		&config, &v.Position, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	m, err := decodeMap(config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config of view %s: %w", v.ID, err)
	}
	v.Config = m
	return v, nil
}

// CreateView inserts v after the resource's existing views.
func (s *SQLiteStore) CreateView(ctx context.Context, v *ResourceView) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if v.ViewType == "" {
		return fmt.Errorf("view type is required")
	}

	config, err := encodeMap(v.Config)
	if err != nil {
		return fmt.Errorf("failed to encode view config: %w", err)
	}

	if _, err := s.GetResource(ctx, v.ResourceID); err != nil {
		return err
	}

	if v.ID == "" {
		v.ID = generateID()
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO resource_views (id, resource_id, view_type, title, description, config, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?,
		         (SELECT COALESCE(MAX(position) + 1, 0) FROM resource_views WHERE resource_id = ?),
		         ?, ?)
		 RETURNING position`,
		v.ID, v.ResourceID, v.ViewType, v.Title, v.Description, config,
		v.ResourceID, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.Position)
	if err != nil {
		return fmt.Errorf("failed to create view: %w", err)
	}
	return nil
}

// GetView retrieves a view by id.
func (s *SQLiteStore) GetView(ctx context.Context, id string) (*ResourceView, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	v, err := scanView(s.db.QueryRowContext(ctx,
		`SELECT `+viewColumns+` FROM resource_views WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("view %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get view: %w", err)
	}
	return v, nil
}

// ListViews returns the views of a resource in creation order.
func (s *SQLiteStore) ListViews(ctx context.Context, resourceID string) ([]*ResourceView, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+viewColumns+` FROM resource_views WHERE resource_id = ? ORDER BY position, created_at`,
		resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*ResourceView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateView saves the title, description and config of v.
func (s *SQLiteStore) UpdateView(ctx context.Context, v *ResourceView) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	config, err := encodeMap(v.Config)
	if err != nil {
		return fmt.Errorf("failed to encode view config: %w", err)
	}

	v.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE resource_views SET title = ?, description = ?, config = ?, updated_at = ? WHERE id = ?`,
		v.Title, v.Description, config, v.UpdatedAt, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update view: %w", err)
	}
	return requireAffected(res, "view", v.ID)
}

// DeleteView removes a view.
func (s *SQLiteStore) DeleteView(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM resource_views WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	return requireAffected(res, "view", id)
}
