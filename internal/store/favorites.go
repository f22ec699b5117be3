package store

import (
	"context"
	"fmt"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"github.com/jmoiron/sqlx"
)

// AddFavorite records a favorite and bumps the product's counter in one transaction
func (s *Store) AddFavorite(ctx context.Context, userID, productID int64) error {
	ctx, span := util.StartSpan(ctx, "Store.AddFavorite")
	defer span.End()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET favorite_count = favorite_count + 1 WHERE product_id = $1", productID)
		if err != nil {
			return fmt.Errorf("failed to count favorite: %w", err)
		}
		if err := expectOneRow(res, fmt.Errorf("%w: %d", models.ErrProductNotFound, productID)); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `
			INSERT INTO favorites (user_id, product_id) VALUES ($1, $2)
			ON CONFLICT (user_id, product_id) DO NOTHING`,
			userID, productID)
		if err != nil {
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
		return expectOneRow(res, fmt.Errorf("%w: user %d, product %d", models.ErrAlreadyFavorited, userID, productID))
	})
}

// RemoveFavorite deletes a favorite and decrements the product's counter
func (s *Store) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	ctx, span := util.StartSpan(ctx, "Store.RemoveFavorite")
	defer span.End()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM favorites WHERE user_id = $1 AND product_id = $2", userID, productID)
		if err != nil {
			return fmt.Errorf("failed to delete favorite: %w", err)
		}
		if err := expectOneRow(res, fmt.Errorf("%w: user %d, product %d", models.ErrNotFavorited, userID, productID)); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE products SET favorite_count = favorite_count - 1 WHERE product_id = $1 AND favorite_count > 0",
			productID)
		if err != nil {
			return fmt.Errorf("failed to uncount favorite: %w", err)
		}
		return nil
	})
}

// ListFavorites returns a user's favorite products, most recently added first
func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]models.FavoriteProduct, error) {
	favorites := []models.FavoriteProduct{}
	err := s.db.SelectContext(ctx, &favorites, `
		SELECT `+qualify("p", productColumns)+`, f.created_at AS favorited_at
		FROM favorites f
		JOIN products p ON p.product_id = f.product_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
	return favorites, err
}

// ListCategories returns the distinct categories of available products
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.db.SelectContext(ctx, &categories, `
		SELECT DISTINCT category FROM products
		WHERE status = $1 AND category <> ''
		ORDER BY category`, models.ProductStatusAvailable)
	return categories, err
}
