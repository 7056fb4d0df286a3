package service

import (
	"context"

	"github.com/kirychukyurii/hostbeat/internal/model"
)

// StatusService reports what this instance is configured to do
type StatusService interface {
	GetStatus(ctx context.Context) (*model.ServiceStatus, error)
}

// statusService implements StatusService
type statusService struct {
	regions RegionReader
	builder string
	sender  string
}

// NewStatusService creates a new status service
func NewStatusService(regions RegionReader, builder, sender string) StatusService {
	return &statusService{
		regions: regions,
		builder: builder,
		sender:  sender,
	}
}

// GetStatus fails when the current region cannot be resolved, since the
// instance cannot process changes without it
func (s *statusService) GetStatus(ctx context.Context) (*model.ServiceStatus, error) {
	current, err := s.regions.CurrentRegion(ctx)
	if err != nil {
		return nil, err
	}

	return &model.ServiceStatus{
		Status:  model.StatusOK,
		Region:  current,
		Builder: s.builder,
		Sender:  s.sender,
	}, nil
}
