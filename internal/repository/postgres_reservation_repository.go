package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// PostgresReservationRepository persists reservations in a single
// table with the status history embedded as JSONB. Transitions use a
// conditional UPDATE on the prior status so racing actors cannot
// clobber each other.
type PostgresReservationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresReservationRepository(pool *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{pool: pool}
}

const reservationColumns = `
	id, human_id, resource_type, resource_id, requester_id, approver_id,
	capacity_units, amount, currency, status,
	payment_intent_ref, payment_confirmation_ref,
	metadata, status_history, created_at, updated_at`

func (r *PostgresReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	history, err := json.Marshal(res.StatusHistory)
	if err != nil {
		return fmt.Errorf("marshaling status history: %w", err)
	}
	metadata, err := json.Marshal(res.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''),
		        $7, $8, $9, $10,
		        NULLIF($11, ''), NULLIF($12, ''),
		        $13, $14, $15, $16)`,
		res.ID, res.HumanID, res.ResourceType, res.ResourceID, res.RequesterID, res.ApproverID,
		res.CapacityUnits, res.Amount, res.Currency, res.Status,
		res.PaymentIntentRef, res.PaymentConfirmationRef,
		metadata, history, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting reservation: %w", err)
	}
	return nil
}

func (r *PostgresReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1`, id)

	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying reservation: %w", err)
	}
	return res, nil
}

func (r *PostgresReservationRepository) Update(ctx context.Context, res *domain.Reservation, expected domain.Status) error {
	history, err := json.Marshal(res.StatusHistory)
	if err != nil {
		return fmt.Errorf("marshaling status history: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE reservations
		SET status = $1,
		    approver_id = NULLIF($2, ''),
		    payment_intent_ref = NULLIF($3, ''),
		    payment_confirmation_ref = NULLIF($4, ''),
		    status_history = $5,
		    updated_at = $6
		WHERE id = $7 AND status = $8`,
		res.Status, res.ApproverID, res.PaymentIntentRef, res.PaymentConfirmationRef,
		history, res.UpdatedAt, res.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("updating reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the record vanished or another actor already moved it
		if _, getErr := r.GetByID(ctx, res.ID); errors.Is(getErr, domain.ErrReservationNotFound) {
			return domain.ErrReservationNotFound
		}
		return fmt.Errorf("%w: record is no longer %s", domain.ErrInvalidTransition, expected)
	}
	return nil
}

func (r *PostgresReservationRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domain.Reservation, error) {
	return r.list(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE requester_id = $1
		ORDER BY created_at`, requesterID)
}

func (r *PostgresReservationRepository) ListByResource(ctx context.Context, resourceID string) ([]*domain.Reservation, error) {
	return r.list(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE resource_id = $1
		ORDER BY created_at`, resourceID)
}

func (r *PostgresReservationRepository) list(ctx context.Context, query string, arg any) ([]*domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var (
		res             domain.Reservation
		approverID      *string
		intentRef       *string
		confirmationRef *string
		metadata        []byte
		history         []byte
	)
	err := row.Scan(
		&res.ID, &res.HumanID, &res.ResourceType, &res.ResourceID, &res.RequesterID, &approverID,
		&res.CapacityUnits, &res.Amount, &res.Currency, &res.Status,
		&intentRef, &confirmationRef,
		&metadata, &history, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if approverID != nil {
		res.ApproverID = *approverID
	}
	if intentRef != nil {
		res.PaymentIntentRef = *intentRef
	}
	if confirmationRef != nil {
		res.PaymentConfirmationRef = *confirmationRef
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &res.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	if err := json.Unmarshal(history, &res.StatusHistory); err != nil {
		return nil, fmt.Errorf("unmarshaling status history: %w", err)
	}
	return &res, nil
}
