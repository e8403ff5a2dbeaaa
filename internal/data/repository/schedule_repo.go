package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"explanation-booking/internal/data/entity"
	"explanation-booking/pkg/database"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrNotInTransaction is returned by locking reads called outside Transactor.WithinTransaction
var ErrNotInTransaction = errors.New("locking read requires a transaction")

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *entity.Schedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error)
	// FindByIDForUpdate reads the schedule and holds its row lock until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Schedule, error)
	Search(ctx context.Context, filter ScheduleFilter) ([]*entity.Schedule, int64, error)
	// Update writes the administrative fields. reserved_count is never touched.
	Update(ctx context.Context, schedule *entity.Schedule) error
	IncrementReserved(ctx context.Context, id uuid.UUID, at time.Time) error
	// DecrementReserved lowers reserved_count by one, never below zero.
	DecrementReserved(ctx context.Context, id uuid.UUID, at time.Time) error
}

type scheduleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewScheduleRepository(db database.PgxIface, log *zap.Logger) ScheduleRepository {
	return &scheduleRepository{
		db:  db,
		log: log.With(zap.String("repository", "schedule")),
	}
}

var scheduleColumns = []string{
	"id", "explanation_id", "round_no", "start_at", "end_at", "location",
	"apply_start_at", "apply_end_at", "status", "capacity", "reserved_count",
	"created_by", "updated_by", "created_at", "updated_at",
}

const scheduleSelect = `
	SELECT id, explanation_id, round_no, start_at, end_at, location,
	       apply_start_at, apply_end_at, status, capacity, reserved_count,
	       created_by, updated_by, created_at, updated_at
	FROM explanation_schedules
`

func scanSchedule(row pgx.Row) (*entity.Schedule, error) {
	var s entity.Schedule
	err := row.Scan(
		&s.ID,
		&s.ExplanationID,
		&s.RoundNo,
		&s.StartAt,
		&s.EndAt,
		&s.Location,
		&s.ApplyStartAt,
		&s.ApplyEndAt,
		&s.Status,
		&s.Capacity,
		&s.ReservedCount,
		&s.CreatedBy,
		&s.UpdatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *entity.Schedule) error {
	query := `
		INSERT INTO explanation_schedules (id, explanation_id, round_no, start_at, end_at, location,
		                                   apply_start_at, apply_end_at, status, capacity, reserved_count,
		                                   created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := database.Executor(ctx, r.db).Exec(ctx, query,
		schedule.ID,
		schedule.ExplanationID,
		schedule.RoundNo,
		schedule.StartAt,
		schedule.EndAt,
		schedule.Location,
		schedule.ApplyStartAt,
		schedule.ApplyEndAt,
		schedule.Status,
		schedule.Capacity,
		schedule.ReservedCount,
		schedule.CreatedBy,
		schedule.UpdatedBy,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create schedule",
			zap.Error(err),
			zap.String("schedule_id", schedule.ID.String()),
			zap.Time("start_at", schedule.StartAt),
		)
		return fmt.Errorf("create schedule %s: %w", schedule.ID.String(), err)
	}

	return nil
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	schedule, err := scanSchedule(database.Executor(ctx, r.db).QueryRow(ctx, scheduleSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find schedule by ID",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, fmt.Errorf("find schedule by ID %s: %w", id.String(), err)
	}

	return schedule, nil
}

func (r *scheduleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	if !database.InTx(ctx) {
		return nil, ErrNotInTransaction
	}

	row := database.Executor(ctx, r.db).QueryRow(ctx, scheduleSelect+` WHERE id = $1 FOR UPDATE`, id)
	schedule, err := scanSchedule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to lock schedule",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, fmt.Errorf("lock schedule %s: %w", id.String(), err)
	}

	return schedule, nil
}

func (r *scheduleRepository) Search(ctx context.Context, filter ScheduleFilter) ([]*entity.Schedule, int64, error) {
	where := squirrel.And{}
	if filter.ExplanationID != nil {
		where = append(where, squirrel.Eq{"explanation_id": *filter.ExplanationID})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.StartFrom != nil {
		where = append(where, squirrel.GtOrEq{"start_at": *filter.StartFrom})
	}
	if filter.StartTo != nil {
		where = append(where, squirrel.LtOrEq{"start_at": *filter.StartTo})
	}
	if filter.ApplyOpenAt != nil {
		where = append(where,
			squirrel.LtOrEq{"apply_start_at": *filter.ApplyOpenAt},
			squirrel.GtOrEq{"apply_end_at": *filter.ApplyOpenAt},
		)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("explanation_schedules").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build schedule count query: %w", err)
	}

	var total int64
	exec := database.Executor(ctx, r.db)
	if err := exec.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.log.Error("Failed to count schedules", zap.Error(err))
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	builder := psql.Select(scheduleColumns...).
		From("explanation_schedules").
		Where(where).
		OrderBy("start_at ASC", "round_no ASC")
	query, args, err := paginate(builder, filter.Limit, filter.Offset).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build schedule search query: %w", err)
	}

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to search schedules", zap.Error(err))
		return nil, 0, fmt.Errorf("search schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*entity.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			r.log.Error("Failed to scan schedule row", zap.Error(err))
			return nil, 0, fmt.Errorf("scan schedule row: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate schedule rows: %w", err)
	}

	return schedules, total, nil
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *entity.Schedule) error {
	query := `
		UPDATE explanation_schedules
		SET start_at = $2, end_at = $3, location = $4, apply_start_at = $5, apply_end_at = $6,
		    status = $7, capacity = $8, updated_by = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := database.Executor(ctx, r.db).Exec(ctx, query,
		schedule.ID,
		schedule.StartAt,
		schedule.EndAt,
		schedule.Location,
		schedule.ApplyStartAt,
		schedule.ApplyEndAt,
		schedule.Status,
		schedule.Capacity,
		schedule.UpdatedBy,
		schedule.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update schedule",
			zap.Error(err),
			zap.String("schedule_id", schedule.ID.String()),
		)
		return fmt.Errorf("update schedule %s: %w", schedule.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s not found", schedule.ID.String())
	}

	return nil
}

func (r *scheduleRepository) IncrementReserved(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE explanation_schedules SET reserved_count = reserved_count + 1, updated_at = $2 WHERE id = $1`

	result, err := database.Executor(ctx, r.db).Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to increment reserved count",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return fmt.Errorf("increment reserved count of schedule %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s not found", id.String())
	}

	return nil
}

func (r *scheduleRepository) DecrementReserved(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE explanation_schedules SET reserved_count = GREATEST(reserved_count - 1, 0), updated_at = $2 WHERE id = $1`

	result, err := database.Executor(ctx, r.db).Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to decrement reserved count",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return fmt.Errorf("decrement reserved count of schedule %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s not found", id.String())
	}

	return nil
}
