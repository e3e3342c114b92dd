package rpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/devoops/user-service/internal/core/domain"
)

const (
	methodCheckGuest = "/reservation.ReservationInternalService/CheckGuestCanBeDeleted"
	methodCheckHost  = "/reservation.ReservationInternalService/CheckHostCanBeDeleted"
)

// ReservationClient asks the reservation service whether an account still has
// active reservations.
type ReservationClient struct {
	c caller
}

func NewReservationClient(conn grpc.ClientConnInterface, timeout time.Duration, log zerolog.Logger) *ReservationClient {
	return &ReservationClient{c: newCaller(conn, "reservation", timeout, log)}
}

func (r *ReservationClient) CheckGuestEligibility(ctx context.Context, userID string) (domain.DeletionEligibility, error) {
	return r.check(ctx, methodCheckGuest, userID)
}

func (r *ReservationClient) CheckHostEligibility(ctx context.Context, userID string) (domain.DeletionEligibility, error) {
	return r.check(ctx, methodCheckHost, userID)
}

func (r *ReservationClient) check(ctx context.Context, method, userID string) (domain.DeletionEligibility, error) {
	var resp checkDeletionResponse
	if err := r.c.invoke(ctx, method, &idRequest{ID: userID}, &resp); err != nil {
		return domain.DeletionEligibility{}, err
	}

	count := int(resp.ActiveReservationCount)
	if count < 0 {
		count = 0
	}
	return domain.DeletionEligibility{
		CanProceed:    resp.CanBeDeleted,
		Reason:        resp.Reason,
		BlockingCount: count,
	}, nil
}
