package db

import (
	"context"
	"fmt"

	"github.com/tgienger/litmus/internal/models"
)

const attachmentColumns = `id, test_result_id, file_name, file_path, content_type, file_size, created_at`

// CreateAttachment links a stored file to a result
func (db *DB) CreateAttachment(ctx context.Context, a models.Attachment) (*models.Attachment, error) {
	result, err := db.q.ExecContext(ctx, `
		INSERT INTO attachments (test_result_id, file_name, file_path, content_type, file_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ResultID, a.FileName, a.FilePath, a.ContentType, a.Size, db.timestamp())
	if err != nil {
		return nil, fmt.Errorf("insert attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetAttachment(ctx, id)
}

// GetAttachment retrieves an attachment by ID
func (db *DB) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	a := &models.Attachment{}
	err := db.q.QueryRowContext(ctx, `
		SELECT `+attachmentColumns+` FROM attachments WHERE id = ?
	`, id).Scan(&a.ID, &a.ResultID, &a.FileName, &a.FilePath, &a.ContentType, &a.Size, &a.CreatedAt)
	if err != nil {
		return nil, notFound(fmt.Sprintf("attachment %d", id), err)
	}
	return a, nil
}

// ListAttachments returns a result's attachments, oldest first
func (db *DB) ListAttachments(ctx context.Context, resultID int64) ([]models.Attachment, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT `+attachmentColumns+` FROM attachments
		WHERE test_result_id = ? ORDER BY created_at, id
	`, resultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.ResultID, &a.FileName, &a.FilePath, &a.ContentType, &a.Size, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// DeleteAttachment removes an attachment row. The file is left to the caller.
func (db *DB) DeleteAttachment(ctx context.Context, id int64) error {
	_, err := db.q.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id)
	return err
}
