package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"travelog/internal/domain/entity"
	"travelog/internal/domain/repository"
)

// Trip rows keep the itinerary collections and photo descriptors as JSONB
// documents; a trip is always written back as a whole.

const tripColumns = `t.id, t.user_id, t.country, t.start_date, t.end_date,
	t.visited_places, t.accommodations, t.transportations, t.budget_items,
	t.weather_notes, t.clothing_notes, t.photos, t.created_at`

const tripOwnerJoin = ` JOIN users u ON u.id = t.user_id`

type TripRepository struct {
	pool *pgxpool.Pool
}

func NewTripRepository(pool *pgxpool.Pool) *TripRepository {
	return &TripRepository{pool: pool}
}

type tripDocs struct {
	visitedPlaces   []byte
	accommodations  []byte
	transportations []byte
	budgetItems     []byte
	photos          []byte
}

func marshalTripDocs(t *entity.Trip) (*tripDocs, error) {
	d := &tripDocs{}
	var err error
	if d.visitedPlaces, err = json.Marshal(t.VisitedPlaces); err != nil {
		return nil, err
	}
	if d.accommodations, err = json.Marshal(t.Accommodations); err != nil {
		return nil, err
	}
	if d.transportations, err = json.Marshal(t.Transportations); err != nil {
		return nil, err
	}
	if d.budgetItems, err = json.Marshal(t.BudgetItems); err != nil {
		return nil, err
	}
	if t.Photos == nil {
		t.Photos = []entity.Photo{}
	}
	if d.photos, err = json.Marshal(t.Photos); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *TripRepository) Create(ctx context.Context, t *entity.Trip) error {
	d, err := marshalTripDocs(t)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO trips (user_id, country, start_date, end_date,
			visited_places, accommodations, transportations, budget_items,
			weather_notes, clothing_notes, photos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`, t.UserID, t.Country, t.StartDate, t.EndDate,
		d.visitedPlaces, d.accommodations, d.transportations, d.budgetItems,
		t.WeatherNotes, t.ClothingNotes, d.photos)
	return row.Scan(&t.ID, &t.CreatedAt)
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*entity.Trip, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tripColumns+`, u.username, u.name, u.avatar_url
		FROM trips t`+tripOwnerJoin+`
		WHERE t.id = $1
	`, id)
	return scanTripWithOwner(row)
}

func (r *TripRepository) ListRandom(ctx context.Context, limit int) ([]*entity.Trip, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tripColumns+`, u.username, u.name, u.avatar_url
		FROM trips t`+tripOwnerJoin+`
		ORDER BY random()
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows, true)
}

func (r *TripRepository) ListAll(ctx context.Context) ([]*entity.Trip, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tripColumns+`, u.username, u.name, u.avatar_url
		FROM trips t`+tripOwnerJoin+`
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows, true)
}

func (r *TripRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Trip, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tripColumns+`
		FROM trips t
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrips(rows, false)
}

func (r *TripRepository) Update(ctx context.Context, t *entity.Trip) error {
	d, err := marshalTripDocs(t)
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE trips
		SET country = $1, start_date = $2, end_date = $3,
			visited_places = $4, accommodations = $5, transportations = $6, budget_items = $7,
			weather_notes = $8, clothing_notes = $9, photos = $10
		WHERE id = $11
	`, t.Country, t.StartDate, t.EndDate,
		d.visitedPlaces, d.accommodations, d.transportations, d.budgetItems,
		t.WeatherNotes, t.ClothingNotes, d.photos, t.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TripRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func collectTrips(rows pgx.Rows, withOwner bool) ([]*entity.Trip, error) {
	trips := make([]*entity.Trip, 0)
	for rows.Next() {
		var (
			t   *entity.Trip
			err error
		)
		if withOwner {
			t, err = scanTripWithOwner(rows)
		} else {
			t, err = scanTrip(rows)
		}
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func scanTrip(row pgx.Row) (*entity.Trip, error) {
	t := &entity.Trip{}
	var places, accoms, transports, budgets, photos []byte
	if err := row.Scan(&t.ID, &t.UserID, &t.Country, &t.StartDate, &t.EndDate,
		&places, &accoms, &transports, &budgets,
		&t.WeatherNotes, &t.ClothingNotes, &photos, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := unmarshalTripDocs(t, places, accoms, transports, budgets, photos); err != nil {
		return nil, err
	}
	return t, nil
}

func scanTripWithOwner(row pgx.Row) (*entity.Trip, error) {
	t := &entity.Trip{Owner: &entity.TripOwner{}}
	var places, accoms, transports, budgets, photos []byte
	if err := row.Scan(&t.ID, &t.UserID, &t.Country, &t.StartDate, &t.EndDate,
		&places, &accoms, &transports, &budgets,
		&t.WeatherNotes, &t.ClothingNotes, &photos, &t.CreatedAt,
		&t.Owner.Username, &t.Owner.Name, &t.Owner.AvatarURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := unmarshalTripDocs(t, places, accoms, transports, budgets, photos); err != nil {
		return nil, err
	}
	return t, nil
}

func unmarshalTripDocs(t *entity.Trip, places, accoms, transports, budgets, photos []byte) error {
	if err := json.Unmarshal(places, &t.VisitedPlaces); err != nil {
		return err
	}
	if err := json.Unmarshal(accoms, &t.Accommodations); err != nil {
		return err
	}
	if err := json.Unmarshal(transports, &t.Transportations); err != nil {
		return err
	}
	if err := json.Unmarshal(budgets, &t.BudgetItems); err != nil {
		return err
	}
	return json.Unmarshal(photos, &t.Photos)
}

var _ repository.TripRepository = (*TripRepository)(nil)
