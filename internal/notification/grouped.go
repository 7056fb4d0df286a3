package notification

import (
	"strings"

	"github.com/kirychukyurii/hostbeat/internal/clock"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

const separator = "--"

type groupedBuilder struct {
	now clock.NowReader
}

// NewGroupedBuilder creates a builder producing a single digest per batch
func NewGroupedBuilder(now clock.NowReader) Builder {
	return &groupedBuilder{now: now}
}

func (b *groupedBuilder) Build(meta model.NotificationMetadata, heartBeats []model.HeartBeat) []model.Notification {
	if len(heartBeats) == 0 {
		return noNotifications()
	}

	hostIDs := make([]string, len(heartBeats))
	details := make([]string, len(heartBeats))
	for i, hb := range heartBeats {
		hostIDs[i] = hb.HostID
		details[i] = hb.String()
	}

	subject := meta.Label + " [" + strings.Join(hostIDs, ", ") + "]"

	var body strings.Builder
	body.WriteString(subject)
	body.WriteString("\n\n")
	body.WriteString(strings.Join(details, "\n"))
	body.WriteString("\n" + separator + "\n")
	body.WriteString("Notification Built: ")
	body.WriteString(model.FormatUTC(b.now.ReadUTC(), ""))
	body.WriteString("\n" + separator)

	return []model.Notification{
		model.NewNotification(subject, body.String()),
	}
}
