package socket

// Broadcaster is the publishing side of the hub. It satisfies the service
// layer's Dispatcher interface; services call it after a committed write and
// log the returned error without failing the request.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// NotificationPayload is the lightweight change event. It carries ids and an
// action only; no titles or values leak to subscribers who may have lost
// access since they subscribed. The estimation id rides in every frame so a
// client subscribed to several rooms can attribute the change without
// inspecting which room delivered it.
type NotificationPayload struct {
	EstimationID string `json:"estimationId"`
	ID           string `json:"id"`
	Action       string `json:"action"` // create, update, destroy
}

// PublishNotification announces a document or item change to the
// estimation's room. payloadType is document_update or item_update.
func (b *Broadcaster) PublishNotification(estimationID, payloadType, action, id string) error {
	publishedTotal.WithLabelValues(payloadType).Inc()
	return b.hub.SendToRoom(
		RoomForEstimation(estimationID),
		MessageType(payloadType),
		NotificationPayload{EstimationID: estimationID, ID: id, Action: action},
	)
}

// PublishFragment pushes the recomputed aggregate and the changed row.
func (b *Broadcaster) PublishFragment(estimationID string, payload interface{}) error {
	publishedTotal.WithLabelValues(string(MessageFragmentUpdate)).Inc()
	return b.hub.SendToRoom(
		RoomForEstimation(estimationID),
		MessageFragmentUpdate,
		payload,
	)
}
