package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bradykim7/cooknet/internal/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// Compile-time interface check.
var _ Store = (*SQLite)(nil)

// SQLite is a file-backed Store
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// NewSQLite opens the database at path and applies pending migrations
func NewSQLite(path string, log *zap.Logger) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection serializes writers; SQLite allows one at a time anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &SQLite{
		db:  db,
		log: log.Named("sqlite"),
		now: time.Now,
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s.log.Info("Opened SQLite store", zap.String("path", path))
	return s, nil
}

// Close releases the database handle
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.log.Info("Closing SQLite store")
	return s.db.Close()
}

// migrate applies every embedded migration that has not been recorded yet
func (s *SQLite) migrate() error {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var found int
		err := s.db.QueryRow("SELECT 1 FROM "+migrationTable+" WHERE name = ?", file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		content, err := fs.ReadFile(migrationFS, "migrations/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(upMigration(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
			file, s.now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}

		s.log.Info("Applied migration", zap.String("name", file))
	}

	return nil
}

// upMigration returns the SQL between the Up and Down markers
func upMigration(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	upIdx := strings.Index(content, up)
	if upIdx == -1 {
		return content
	}
	content = content[upIdx+len(up):]
	if downIdx := strings.Index(content, down); downIdx != -1 {
		content = content[:downIdx]
	}
	return content
}

const recipeColumns = `id, author_id, author, title, description, photo_id, photo_url, caption, likes, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var (
		r         models.Recipe
		photoID   sql.NullString
		photoURL  sql.NullString
		createdAt int64
	)
	if err := row.Scan(
		&r.ID,
		&r.AuthorID,
		&r.Author,
		&r.Title,
		&r.Description,
		&photoID,
		&photoURL,
		&r.Caption,
		&r.Likes,
		&createdAt,
	); err != nil {
		return nil, err
	}
	r.PhotoID = photoID.String
	r.PhotoURL = photoURL.String
	r.CreatedAt = time.UnixMilli(createdAt).UTC()

	if err := checkRecipe(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateRecipe validates and inserts a recipe
func (s *SQLite) CreateRecipe(ctx context.Context, in models.NewRecipe) (*models.Recipe, error) {
	recipe, err := prepareRecipe(in, s.now())
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (author_id, author, title, description, photo_id, photo_url, caption, likes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		recipe.AuthorID,
		recipe.Author,
		recipe.Title,
		recipe.Description,
		nullString(recipe.PhotoID),
		nullString(recipe.PhotoURL),
		recipe.Caption,
		recipe.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, wrap("insert recipe", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, wrap("insert recipe", err)
	}
	recipe.ID = id
	// Stored timestamps have millisecond precision.
	recipe.CreatedAt = time.UnixMilli(recipe.CreatedAt.UnixMilli()).UTC()

	s.log.Info("Recipe created", zap.Int64("id", id), zap.String("author", recipe.Author))
	return &recipe, nil
}

// GetRecipe returns the recipe with the given id
func (s *SQLite) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get recipe", err)
	}
	return recipe, nil
}

// ListRecent returns recipes newest first. A limit <= 0 returns all of them.
func (s *SQLite) ListRecent(ctx context.Context, limit int) ([]models.Recipe, error) {
	return s.listRecipes(ctx, "list recent", `ORDER BY id DESC`, limit)
}

// ListTop returns recipes by likes, newest first among equal likes
func (s *SQLite) ListTop(ctx context.Context, limit int) ([]models.Recipe, error) {
	return s.listRecipes(ctx, "list top", `ORDER BY likes DESC, id DESC`, limit)
}

func (s *SQLite) listRecipes(ctx context.Context, op, order string, limit int) ([]models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes ` + order
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		recipes = append(recipes, *recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return recipes, nil
}

// LikeRecipe increments the like counter in a single statement
func (s *SQLite) LikeRecipe(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE recipes SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return wrap("like recipe", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("like recipe", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RandomRecipe returns any recipe, or ErrNotFound when there are none
func (s *SQLite) RandomRecipe(ctx context.Context) (*models.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY RANDOM() LIMIT 1`)
	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("random recipe", err)
	}
	return recipe, nil
}

// UpsertUser records a user and the chat they talk to the bot from
func (s *SQLite) UpsertUser(ctx context.Context, id, username, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, chat_id) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		    username = excluded.username,
		    chat_id = excluded.chat_id`,
		id, username, nullString(chatID),
	)
	return wrap("upsert user", err)
}

// GetUser returns a user by id
func (s *SQLite) GetUser(ctx context.Context, id string) (*models.User, error) {
	var (
		u        models.User
		chatID   sql.NullString
		chatSub  int
		dailySub int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, chat_id, chat_sub, daily_sub FROM users WHERE user_id = ?`, id,
	).Scan(&u.ID, &u.Username, &chatID, &chatSub, &dailySub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get user", err)
	}
	u.ChatID = chatID.String
	u.ChatSub = chatSub != 0
	u.DailySub = dailySub != 0
	return &u, nil
}

// SetChatSubscription toggles relaying of community chat messages
func (s *SQLite) SetChatSubscription(ctx context.Context, id string, on bool) error {
	return s.setFlag(ctx, "set chat subscription", `UPDATE users SET chat_sub = ? WHERE user_id = ?`, id, on)
}

// SetDailySubscription toggles the daily recipe digest
func (s *SQLite) SetDailySubscription(ctx context.Context, id string, on bool) error {
	return s.setFlag(ctx, "set daily subscription", `UPDATE users SET daily_sub = ? WHERE user_id = ?`, id, on)
}

func (s *SQLite) setFlag(ctx context.Context, op, query, id string, on bool) error {
	value := 0
	if on {
		value = 1
	}
	res, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ChatSubscribers returns the chat ids of chat subscribers other than excludeUserID
func (s *SQLite) ChatSubscribers(ctx context.Context, excludeUserID string) ([]string, error) {
	return s.chatIDs(ctx, "chat subscribers",
		`SELECT chat_id FROM users
		 WHERE chat_sub = 1 AND chat_id IS NOT NULL AND chat_id <> '' AND user_id <> ?
		 ORDER BY user_id`,
		excludeUserID,
	)
}

// DailySubscribers returns the chat ids subscribed to the daily digest
func (s *SQLite) DailySubscribers(ctx context.Context) ([]string, error) {
	return s.chatIDs(ctx, "daily subscribers",
		`SELECT chat_id FROM users
		 WHERE daily_sub = 1 AND chat_id IS NOT NULL AND chat_id <> ''
		 ORDER BY user_id`,
	)
}

func (s *SQLite) chatIDs(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return ids, nil
}

// SaveChatMessage stores a community chat message
func (s *SQLite) SaveChatMessage(ctx context.Context, userID, username, text string) (*models.ChatMessage, error) {
	sentAt := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (user_id, username, text, ts) VALUES (?, ?, ?, ?)`,
		userID, username, text, sentAt.UnixMilli(),
	)
	if err != nil {
		return nil, wrap("save chat message", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, wrap("save chat message", err)
	}
	return &models.ChatMessage{
		ID:       id,
		UserID:   userID,
		Username: username,
		Text:     text,
		SentAt:   time.UnixMilli(sentAt.UnixMilli()).UTC(),
	}, nil
}

// RecentChatMessages returns the last limit messages, oldest first
func (s *SQLite) RecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, username, text, ts FROM chat_messages ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, wrap("recent chat messages", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var (
			m  models.ChatMessage
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Username, &m.Text, &ts); err != nil {
			return nil, wrap("recent chat messages", err)
		}
		m.SentAt = time.UnixMilli(ts).UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("recent chat messages", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
