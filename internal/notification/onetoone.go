package notification

import (
	"fmt"

	"github.com/kirychukyurii/hostbeat/internal/model"
)

type oneToOneBuilder struct{}

// NewOneToOneBuilder creates a builder producing one notification per host,
// for deployments that route alerts per host instead of as a digest
func NewOneToOneBuilder() Builder {
	return oneToOneBuilder{}
}

func (oneToOneBuilder) Build(meta model.NotificationMetadata, heartBeats []model.HeartBeat) []model.Notification {
	if len(heartBeats) == 0 {
		return noNotifications()
	}

	notifications := make([]model.Notification, 0, len(heartBeats))
	for _, hb := range heartBeats {
		notifications = append(notifications, model.NewNotification(
			fmt.Sprintf("S-%s", hb.HostID),
			fmt.Sprintf("M-%s-%s", hb.HostID, meta.Label),
		))
	}

	return notifications
}
