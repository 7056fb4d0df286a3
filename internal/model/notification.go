package model

// Notification labels used for the two notable change kinds
const (
	LabelHostsMissing    = "Hosts missing"
	LabelHostsRegistered = "Hosts registered"
)

// Notification is a message ready to be handed to a sender
type Notification struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// NewNotification creates a notification
func NewNotification(subject, message string) Notification {
	return Notification{Subject: subject, Message: message}
}

// NotificationMetadata describes the change kind a batch of notifications reports
type NotificationMetadata struct {
	Label string `json:"label"`
}

var (
	// MissingMetadata labels notifications for deleted heartbeats
	MissingMetadata = NotificationMetadata{Label: LabelHostsMissing}

	// RegisteredMetadata labels notifications for inserted heartbeats
	RegisteredMetadata = NotificationMetadata{Label: LabelHostsRegistered}
)
