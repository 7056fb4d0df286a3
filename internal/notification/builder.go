package notification

import (
	"fmt"

	"github.com/kirychukyurii/hostbeat/internal/clock"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

// Builder strategy names
const (
	KindGrouped  = "grouped"
	KindOneToOne = "one_to_one"
)

// Builder turns a batch of same-kind heartbeat events into notifications.
// An empty batch always yields no notifications.
type Builder interface {
	Build(meta model.NotificationMetadata, heartBeats []model.HeartBeat) []model.Notification
}

// NewBuilder returns the builder strategy registered under kind
func NewBuilder(kind string, now clock.NowReader) (Builder, error) {
	switch kind {
	case KindGrouped:
		return NewGroupedBuilder(now), nil
	case KindOneToOne:
		return NewOneToOneBuilder(), nil
	default:
		return nil, fmt.Errorf("unknown notification builder %q", kind)
	}
}

func noNotifications() []model.Notification {
	return []model.Notification{}
}
