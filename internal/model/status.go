package model

// ServiceStatus represents the current status of the hostbeat service
type ServiceStatus struct {
	Status  string `json:"status"`
	Region  string `json:"region"`  // Region this instance owns notifications for
	Builder string `json:"builder"` // Notification builder strategy in use
	Sender  string `json:"sender"`  // Notification transport in use
}

// StatusOK is reported while the service is serving requests
const StatusOK = "OK"
