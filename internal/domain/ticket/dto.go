package ticket

// UpdateStatusRequest asks for a cancellation or a refund. Activation is
// driven by the payment pipeline, not this endpoint.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,ticket_target_status"`
}
