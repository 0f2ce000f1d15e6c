package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"verdantplate/api/internal/catalog"
)

// RecipeStore is the typed accessor over the recipe collection and its
// surrounding account/session tables. It implements catalog.Source.
type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func (s *RecipeStore) DB() *sql.DB {
	return s.db
}

const recipeColumns = `id, name, category, description, ingredients, steps, media_url, author, author_email, servings, prep_time, calories, fat, carbs, protein, created_at`

func scanRecipe(row interface{ Scan(...any) error }) (catalog.Item, error) {
	var item catalog.Item
	var category, ingredients, steps string
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&category,
		&item.Description,
		&ingredients,
		&steps,
		&item.MediaURL,
		&item.Author,
		&item.AuthorEmail,
		&item.Nutrition.Servings,
		&item.Nutrition.PrepTime,
		&item.Nutrition.Calories,
		&item.Nutrition.Fat,
		&item.Nutrition.Carbs,
		&item.Nutrition.Protein,
		&item.CreatedAt,
	); err != nil {
		return catalog.Item{}, err
	}
	item.Category = catalog.Category(category)
	item.Ingredients = catalog.NormalizeList(ingredients)
	item.Steps = catalog.NormalizeList(steps)
	return item, nil
}

func (s *RecipeStore) ListItems(ctx context.Context) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()
	return collectRecipes(rows)
}

func (s *RecipeStore) ListItemsByCategory(ctx context.Context, category catalog.Category) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes
		WHERE category=$1
		ORDER BY created_at DESC
	`, string(category))
	if err != nil {
		return nil, fmt.Errorf("list recipes by category: %w", err)
	}
	defer rows.Close()
	return collectRecipes(rows)
}

func collectRecipes(rows *sql.Rows) ([]catalog.Item, error) {
	items := make([]catalog.Item, 0)
	for rows.Next() {
		item, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	return items, nil
}

func (s *RecipeStore) GetRecipe(ctx context.Context, recipeID string) (catalog.Item, error) {
	item, err := scanRecipe(s.db.QueryRowContext(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes
		WHERE id=$1
	`, recipeID))
	if err != nil {
		return catalog.Item{}, err
	}
	return item, nil
}

func (s *RecipeStore) InsertRecipe(ctx context.Context, item catalog.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recipes (id, name, category, description, ingredients, steps, media_url, author, author_email, servings, prep_time, calories, fat, carbs, protein)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		item.ID,
		item.Name,
		string(item.Category),
		item.Description,
		catalog.EncodeList(item.Ingredients),
		catalog.EncodeList(item.Steps),
		item.MediaURL,
		item.Author,
		item.AuthorEmail,
		item.Nutrition.Servings,
		item.Nutrition.PrepTime,
		item.Nutrition.Calories,
		item.Nutrition.Fat,
		item.Nutrition.Carbs,
		item.Nutrition.Protein,
	)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

func (s *RecipeStore) ListComments(ctx context.Context, recipeID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipe_id, author_name, body, created_at
		FROM comments
		WHERE recipe_id=$1
		ORDER BY created_at ASC
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		var item Comment
		if err := rows.Scan(&item.ID, &item.RecipeID, &item.Author, &item.Text, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}

// InsertComment appends a comment; created_at is assigned by the store, not
// the client.
func (s *RecipeStore) InsertComment(ctx context.Context, comment Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, recipe_id, author_name, body)
		VALUES ($1, $2, $3, $4)
	`, comment.ID, comment.RecipeID, comment.Author, comment.Text)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *RecipeStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, is_email_verified, COALESCE(verification_token, ''), created_at
		FROM users
		WHERE LOWER(email)=LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.VerificationToken, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *RecipeStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, is_email_verified, COALESCE(verification_token, ''), created_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.VerificationToken, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *RecipeStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, is_email_verified, verification_token, verification_expires_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.IsEmailVerified, user.VerificationToken, user.VerificationExpiresAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *RecipeStore) VerifyUserEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token=NULL, verification_expires_at=NULL
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify user email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify user email rows: %w", err)
	}
	if affected == 0 {
		return errors.New("invalid or expired verification token")
	}
	return nil
}

func (s *RecipeStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *RecipeStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.display_name, u.email
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash).Scan(&user.ID, &user.DisplayName, &user.Email)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *RecipeStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *RecipeStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *RecipeStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// Ping verifies the database connection is alive
func (s *RecipeStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
