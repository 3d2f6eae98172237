package masking

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/logger"
	"github.com/pablo-flores/wa-3fecta/internal/masking"
)

// Service abstracts the business operation the transport layer depends on.
type Service interface {
	FindMaskedAlarms(ctx context.Context, allowDiskUse *bool) ([]alarm.Record, error)
}

// Server implements the MaskingService gRPC API.
type Server struct {
	// service runs the masking filter.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// FindMaskedAlarms runs the masking filter and returns the masked alarms.
func (s *Server) FindMaskedAlarms(ctx context.Context, request *structpb.Struct) (*structpb.ListValue, error) {
	allowDiskUse, err := ParseRequest(request)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	records, err := s.service.FindMaskedAlarms(ctx, allowDiskUse)
	if err != nil {
		logger.ErrorKV(ctx, "Masked alarm query failed", "error", err)

		return nil, toStatus(err)
	}

	response, err := ToListValue(records)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode masked alarms")
	}

	return response, nil
}

// toStatus maps service errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, masking.ErrWorkingSetExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "query canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "query timed out")
	default:
		return status.Error(codes.Internal, "unable to find masked alarms")
	}
}
