package rpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/devoops/user-service/internal/core/domain"
)

const methodDeleteByHost = "/accommodation.AccommodationInternalService/DeleteAccommodationsByHost"

// AccommodationClient removes a host's listings on the accommodation service.
type AccommodationClient struct {
	c caller
}

func NewAccommodationClient(conn grpc.ClientConnInterface, timeout time.Duration, log zerolog.Logger) *AccommodationClient {
	return &AccommodationClient{c: newCaller(conn, "accommodation", timeout, log)}
}

func (a *AccommodationClient) DeleteAllOwnedByHost(ctx context.Context, hostID string) (domain.CascadeResult, error) {
	var resp deleteByHostResponse
	if err := a.c.invoke(ctx, methodDeleteByHost, &idRequest{ID: hostID}, &resp); err != nil {
		return domain.CascadeResult{}, err
	}

	count := int(resp.DeletedCount)
	if count < 0 {
		count = 0
	}
	if resp.Success {
		a.c.log.Info().Str("host_id", hostID).Int("deleted_count", count).Msg("host accommodations deleted")
	} else {
		a.c.log.Error().Str("host_id", hostID).Str("error_message", resp.ErrorMessage).Msg("accommodation service refused cascade delete")
	}
	return domain.CascadeResult{
		Succeeded:     resp.Success,
		AffectedCount: count,
		ErrorMessage:  resp.ErrorMessage,
	}, nil
}
