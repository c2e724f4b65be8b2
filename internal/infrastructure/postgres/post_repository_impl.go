package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"travelog/internal/domain/entity"
	"travelog/internal/domain/repository"
)

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) List(ctx context.Context) ([]*entity.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, comment, author_name, image_url, rating, created_at
		FROM posts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*entity.Post, 0)
	for rows.Next() {
		p := &entity.Post{}
		if err := rows.Scan(&p.ID, &p.Comment, &p.AuthorName, &p.ImageURL, &p.Rating, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

var _ repository.PostRepository = (*PostRepository)(nil)
