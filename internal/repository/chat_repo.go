package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwise/internal/models"
)

// ChatRepo stores chats and their messages. Every chat query is scoped by
// the owning user; a chat owned by someone else reads as pgx.ErrNoRows.
type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, userID uuid.UUID, title string) (*models.ChatRecord, error) {
	c := &models.ChatRecord{ID: uuid.New(), UserID: userID, Title: title}
	query := `INSERT INTO chats (id, user_id, title)
		VALUES ($1, $2, $3) RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Title).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chats WHERE user_id = $1
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := make([]models.ChatRecord, 0)
	for rows.Next() {
		var c models.ChatRecord
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (r *ChatRepo) GetByID(ctx context.Context, userID, chatID uuid.UUID) (*models.ChatRecord, error) {
	c := &models.ChatRecord{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chats WHERE id = $1 AND user_id = $2`, chatID, userID,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChatRepo) UpdateTitle(ctx context.Context, userID, chatID uuid.UUID, title string) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE chats SET title = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3",
		title, chatID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChatRepo) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM chats WHERE id = $1 AND user_id = $2", chatID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChatRepo) Messages(ctx context.Context, chatID uuid.UUID) ([]models.StoredMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, chat_id, role, content, created_at
		FROM chat_messages WHERE chat_id = $1
		ORDER BY position`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]models.StoredMessage, 0)
	for rows.Next() {
		var m models.StoredMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// AppendExchange stores a user message and its reply as the next two
// positions of a chat. When the chat had no messages yet its title is set
// to firstTitle, which is returned; otherwise the returned title is "".
func (r *ChatRepo) AppendExchange(ctx context.Context, chatID uuid.UUID, user, assistant *models.StoredMessage, firstTitle string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Row lock serialises concurrent sends to the same chat.
	if _, err := tx.Exec(ctx, "SELECT 1 FROM chats WHERE id = $1 FOR UPDATE", chatID); err != nil {
		return "", err
	}

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM chat_messages WHERE chat_id = $1", chatID).Scan(&count); err != nil {
		return "", err
	}

	for i, m := range []*models.StoredMessage{user, assistant} {
		m.ID = uuid.New()
		m.ChatID = chatID
		err := tx.QueryRow(ctx, `
			INSERT INTO chat_messages (id, chat_id, position, role, content)
			VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
			m.ID, chatID, count+i, m.Role, m.Content,
		).Scan(&m.Timestamp)
		if err != nil {
			return "", fmt.Errorf("failed to insert message: %w", err)
		}
	}

	title := ""
	if count == 0 && firstTitle != "" {
		title = firstTitle
		_, err = tx.Exec(ctx, "UPDATE chats SET title = $1, updated_at = NOW() WHERE id = $2", title, chatID)
	} else {
		_, err = tx.Exec(ctx, "UPDATE chats SET updated_at = NOW() WHERE id = $1", chatID)
	}
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit exchange: %w", err)
	}
	return title, nil
}
