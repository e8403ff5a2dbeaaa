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

type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindBySchedule(ctx context.Context, scheduleID uuid.UUID, status *entity.ReservationStatus) ([]*entity.Reservation, error)
	FindByRequester(ctx context.Context, requester entity.Requester) ([]*entity.Reservation, error)

	// Business queries
	FindActiveByRequester(ctx context.Context, scheduleID uuid.UUID, requester entity.Requester) (*entity.Reservation, error)
	FindLatestByRequester(ctx context.Context, scheduleID uuid.UUID, requester entity.Requester) (*entity.Reservation, error)
	Search(ctx context.Context, filter ReservationFilter) ([]*entity.Reservation, int64, error)
	CountByStatus(ctx context.Context, scheduleID *uuid.UUID) (map[entity.ReservationStatus]int64, error)
	// MarkCanceled moves a non-canceled reservation to CANCELED and reports
	// whether a row actually changed.
	MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	UpdateMemo(ctx context.Context, id uuid.UUID, memo *string, at time.Time) error
}

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

var reservationColumns = []string{
	"id", "schedule_id", "member_id", "guest_name", "guest_phone",
	"status", "memo", "canceled_at", "created_at", "updated_at",
}

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.ScheduleID,
		&res.Requester.MemberID,
		&res.Requester.GuestName,
		&res.Requester.GuestPhone,
		&res.Status,
		&res.Memo,
		&res.CanceledAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// requesterPredicate matches the member id, or the guest name+phone pair
func requesterPredicate(requester entity.Requester) squirrel.Sqlizer {
	if requester.IsMember() {
		return squirrel.Eq{"member_id": *requester.MemberID}
	}
	return squirrel.And{
		squirrel.Eq{"member_id": nil},
		squirrel.Eq{"guest_name": *requester.GuestName},
		squirrel.Eq{"guest_phone": *requester.GuestPhone},
	}
}

func (r *reservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO explanation_reservations (id, schedule_id, member_id, guest_name, guest_phone,
		                                      status, memo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := database.Executor(ctx, r.db).Exec(ctx, query,
		res.ID,
		res.ScheduleID,
		res.Requester.MemberID,
		res.Requester.GuestName,
		res.Requester.GuestPhone,
		res.Status,
		res.Memo,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
			zap.String("schedule_id", res.ScheduleID.String()),
		)
		return fmt.Errorf("create reservation %s: %w", res.ID.String(), err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query, args, err := psql.Select(reservationColumns...).
		From("explanation_reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reservation query: %w", err)
	}

	res, err := scanReservation(database.Executor(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *reservationRepository) FindBySchedule(ctx context.Context, scheduleID uuid.UUID, status *entity.ReservationStatus) ([]*entity.Reservation, error) {
	where := squirrel.And{squirrel.Eq{"schedule_id": scheduleID}}
	if status != nil {
		where = append(where, squirrel.Eq{"status": string(*status)})
	}

	return r.list(ctx, psql.Select(reservationColumns...).
		From("explanation_reservations").
		Where(where).
		OrderBy("created_at DESC"))
}

func (r *reservationRepository) FindByRequester(ctx context.Context, requester entity.Requester) ([]*entity.Reservation, error) {
	return r.list(ctx, psql.Select(reservationColumns...).
		From("explanation_reservations").
		Where(requesterPredicate(requester)).
		OrderBy("created_at DESC"))
}

func (r *reservationRepository) FindActiveByRequester(ctx context.Context, scheduleID uuid.UUID, requester entity.Requester) (*entity.Reservation, error) {
	return r.findOne(ctx, psql.Select(reservationColumns...).
		From("explanation_reservations").
		Where(squirrel.And{
			squirrel.Eq{"schedule_id": scheduleID},
			squirrel.Eq{"status": string(entity.ReservationStatusConfirmed)},
			requesterPredicate(requester),
		}).
		Limit(1))
}

func (r *reservationRepository) FindLatestByRequester(ctx context.Context, scheduleID uuid.UUID, requester entity.Requester) (*entity.Reservation, error) {
	return r.findOne(ctx, psql.Select(reservationColumns...).
		From("explanation_reservations").
		Where(squirrel.And{
			squirrel.Eq{"schedule_id": scheduleID},
			requesterPredicate(requester),
		}).
		OrderBy("created_at DESC").
		Limit(1))
}

func (r *reservationRepository) Search(ctx context.Context, filter ReservationFilter) ([]*entity.Reservation, int64, error) {
	where := squirrel.And{}
	if filter.ScheduleID != nil {
		where = append(where, squirrel.Eq{"schedule_id": *filter.ScheduleID})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.MemberID != nil {
		where = append(where, squirrel.Eq{"member_id": *filter.MemberID})
	}
	if filter.GuestPhone != nil {
		where = append(where, squirrel.Eq{"guest_phone": *filter.GuestPhone})
	}
	if filter.CreatedFrom != nil {
		where = append(where, squirrel.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		where = append(where, squirrel.LtOrEq{"created_at": *filter.CreatedTo})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("explanation_reservations").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build reservation count query: %w", err)
	}

	var total int64
	if err := database.Executor(ctx, r.db).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.log.Error("Failed to count reservations", zap.Error(err))
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	builder := psql.Select(reservationColumns...).
		From("explanation_reservations").
		Where(where).
		OrderBy("created_at DESC")

	reservations, err := r.list(ctx, paginate(builder, filter.Limit, filter.Offset))
	if err != nil {
		return nil, 0, err
	}

	return reservations, total, nil
}

func (r *reservationRepository) CountByStatus(ctx context.Context, scheduleID *uuid.UUID) (map[entity.ReservationStatus]int64, error) {
	builder := psql.Select("status", "COUNT(*)").
		From("explanation_reservations").
		GroupBy("status")
	if scheduleID != nil {
		builder = builder.Where(squirrel.Eq{"schedule_id": *scheduleID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reservation statistics query: %w", err)
	}

	rows, err := database.Executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to count reservations by status", zap.Error(err))
		return nil, fmt.Errorf("count reservations by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.ReservationStatus]int64)
	for rows.Next() {
		var status entity.ReservationStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan reservation statistics row: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservation statistics rows: %w", err)
	}

	return counts, nil
}

func (r *reservationRepository) MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE explanation_reservations
		SET status = $2, canceled_at = $3, updated_at = $3
		WHERE id = $1 AND status <> $2
	`

	result, err := database.Executor(ctx, r.db).Exec(ctx, query, id, entity.ReservationStatusCanceled, at)
	if err != nil {
		r.log.Error("Failed to cancel reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return false, fmt.Errorf("cancel reservation %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *reservationRepository) UpdateMemo(ctx context.Context, id uuid.UUID, memo *string, at time.Time) error {
	query := `UPDATE explanation_reservations SET memo = $2, updated_at = $3 WHERE id = $1`

	result, err := database.Executor(ctx, r.db).Exec(ctx, query, id, memo, at)
	if err != nil {
		r.log.Error("Failed to update reservation memo",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("update memo of reservation %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found", id.String())
	}

	return nil
}

func (r *reservationRepository) findOne(ctx context.Context, builder squirrel.SelectBuilder) (*entity.Reservation, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reservation query: %w", err)
	}

	res, err := scanReservation(database.Executor(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation", zap.Error(err))
		return nil, fmt.Errorf("find reservation: %w", err)
	}

	return res, nil
}

func (r *reservationRepository) list(ctx context.Context, builder squirrel.SelectBuilder) ([]*entity.Reservation, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reservation query: %w", err)
	}

	rows, err := database.Executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list reservations", zap.Error(err))
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservation rows: %w", err)
	}

	return reservations, nil
}
