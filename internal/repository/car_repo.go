package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"carrental/internal/db"
	"carrental/internal/entities"
)

// CarFilter narrows a car listing. Empty strings and nil pointers are ignored.
type CarFilter struct {
	Brand        string
	Transmission string
	FuelType     string
	MinPrice     *float64
	MaxPrice     *float64
	Seats        *int
	Search       string
	Status       string
	SortBy       string
	SortOrder    string
	Limit        int
	Offset       int
}

type CarRepository struct {
	DB *sql.DB
}

func NewCarRepository(db *sql.DB) *CarRepository {
	return &CarRepository{DB: db}
}

const carColumns = `c.id, c.brand, c.model, c.year, c.transmission, c.fuel_type, c.seats, c.price_per_day,
	c.description, c.features, c.image_url, c.license_plate, c.status, c.created_at, c.updated_at`

const carWithRatingSelect = `SELECT ` + carColumns + `,
	ROUND(COALESCE(AVG(r.rating), 0), 1) AS average_rating,
	COUNT(r.id) AS review_count
	FROM cars c
	LEFT JOIN reviews r ON r.car_id = c.id`

var sortColumns = map[string]string{
	"price":      "c.price_per_day",
	"year":       "c.year",
	"brand":      "c.brand",
	"model":      "c.model",
	"created_at": "c.created_at",
}

// orderBy maps a requested sort onto a known column, falling back to newest first.
func orderBy(sortBy, sortOrder string) string {
	col, ok := sortColumns[sortBy]
	if !ok {
		col = "c.created_at"
	}
	dir := "DESC"
	if sortOrder == "asc" {
		dir = "ASC"
	}
	return " ORDER BY " + col + " " + dir + ", c.id " + dir
}

func carConditions(f CarFilter) *QueryBuilder {
	qb := NewQueryBuilder()
	status := f.Status
	if status == "" {
		status = db.CarActive
	}
	qb.Eq("c.status", status)
	if f.Brand != "" {
		qb.Eq("c.brand", f.Brand)
	}
	if f.Transmission != "" {
		qb.Eq("c.transmission", f.Transmission)
	}
	if f.FuelType != "" {
		qb.Eq("c.fuel_type", f.FuelType)
	}
	if f.MinPrice != nil {
		qb.Gte("c.price_per_day", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		qb.Lte("c.price_per_day", *f.MaxPrice)
	}
	if f.Seats != nil {
		qb.Eq("c.seats", *f.Seats)
	}
	if f.Search != "" {
		qb.ILikeAny(f.Search, "c.brand", "c.model", "c.description")
	}
	return qb
}

// List returns one page of cars matching f and the number of matches over all pages.
func (r *CarRepository) List(ctx context.Context, f CarFilter) ([]db.Car, int, error) {
	qb := carConditions(f)

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM cars c"+qb.Where(), qb.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting cars: %w", err)
	}

	page, args := qb.Page(f.Limit, f.Offset)
	query := carWithRatingSelect + qb.Where() + " GROUP BY c.id" + orderBy(f.SortBy, f.SortOrder) + page

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying cars: %w", err)
	}
	defer rows.Close()

	cars := []db.Car{}
	for rows.Next() {
		car, err := scanCar(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning car: %w", err)
		}
		cars = append(cars, *car)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error after iterating cars: %w", err)
	}
	return cars, total, nil
}

func scanCar(row interface{ Scan(...any) error }, withRating bool) (*db.Car, error) {
	var (
		car      db.Car
		features []byte
		imageURL sql.NullString
	)
	dest := []any{
		&car.ID, &car.Brand, &car.Model, &car.Year, &car.Transmission, &car.FuelType, &car.Seats, &car.PricePerDay,
		&car.Description, &features, &imageURL, &car.LicensePlate, &car.Status, &car.CreatedAt, &car.UpdatedAt,
	}
	if withRating {
		dest = append(dest, &car.AverageRating, &car.ReviewCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	car.ImageURL = imageURL.String
	car.Features = []string{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &car.Features); err != nil {
			return nil, fmt.Errorf("error decoding features of car %d: %w", car.ID, err)
		}
	}
	return &car, nil
}

// GetByID returns an active car with its rating summary.
func (r *CarRepository) GetByID(ctx context.Context, id int64) (*db.Car, error) {
	query := carWithRatingSelect + " WHERE c.id = $1 AND c.status = $2 GROUP BY c.id"
	car, err := scanCar(r.DB.QueryRowContext(ctx, query, id, db.CarActive), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying car %d: %w", id, err)
	}
	return car, nil
}

// GetByIDAnyStatus returns a car whatever its status, without ratings.
func (r *CarRepository) GetByIDAnyStatus(ctx context.Context, id int64) (*db.Car, error) {
	car, err := scanCar(r.DB.QueryRowContext(ctx, "SELECT "+carColumns+" FROM cars c WHERE c.id = $1", id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying car %d: %w", id, err)
	}
	return car, nil
}

func (r *CarRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM cars WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking car %d: %w", id, err)
	}
	return exists, nil
}

// RecentReviews returns the latest reviews of a car, newest first.
func (r *CarRepository) RecentReviews(ctx context.Context, carID int64, limit int) ([]db.Review, error) {
	query := `
		SELECT r.rating, r.comment, r.created_at, u.first_name, u.last_name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.car_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, carID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying reviews of car %d: %w", carID, err)
	}
	defer rows.Close()

	reviews := []db.Review{}
	for rows.Next() {
		var rv db.Review
		if err := rows.Scan(&rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.FirstName, &rv.LastName); err != nil {
			return nil, fmt.Errorf("error scanning review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *CarRepository) Create(ctx context.Context, car *db.Car) error {
	if car.Status == "" {
		car.Status = db.CarActive
	}
	if car.Features == nil {
		car.Features = []string{}
	}
	features, err := json.Marshal(car.Features)
	if err != nil {
		return fmt.Errorf("error encoding features: %w", err)
	}

	query := `
		INSERT INTO cars (brand, model, year, transmission, fuel_type, seats, price_per_day,
			description, features, image_url, license_plate, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	err = r.DB.QueryRowContext(ctx, query,
		car.Brand, car.Model, car.Year, car.Transmission, car.FuelType, car.Seats, car.PricePerDay,
		car.Description, string(features), nullString(car.ImageURL), car.LicensePlate, car.Status,
	).Scan(&car.ID, &car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting car: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of req. A non-empty imageURL replaces the
// stored image.
func (r *CarRepository) Update(ctx context.Context, id int64, req *entities.CarUpdateRequest, imageURL string) error {
	qb := NewQueryBuilder()
	assignString(qb, "brand", req.Brand)
	assignString(qb, "model", req.Model)
	if req.Year != nil {
		qb.Assign("year", *req.Year)
	}
	assignString(qb, "transmission", req.Transmission)
	assignString(qb, "fuel_type", req.FuelType)
	if req.Seats != nil {
		qb.Assign("seats", *req.Seats)
	}
	if req.PricePerDay != nil {
		qb.Assign("price_per_day", *req.PricePerDay)
	}
	assignString(qb, "description", req.Description)
	if req.Features != nil {
		features, err := json.Marshal(req.Features)
		if err != nil {
			return fmt.Errorf("error encoding features: %w", err)
		}
		qb.Assign("features", string(features))
	}
	assignString(qb, "license_plate", req.LicensePlate)
	assignString(qb, "status", req.Status)
	if imageURL != "" {
		qb.Assign("image_url", imageURL)
	}
	qb.AssignNow("updated_at").Eq("id", id)

	res, err := r.DB.ExecContext(ctx, "UPDATE cars SET "+qb.SetClause()+qb.Where(), qb.Args()...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error updating car %d: %w", id, err)
	}
	return expectAffected(res)
}

func assignString(qb *QueryBuilder, column string, v *string) {
	if v != nil {
		qb.Assign(column, *v)
	}
}

func (r *CarRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cars WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting car %d: %w", id, err)
	}
	return expectAffected(res)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
