package request

type ClaimSlotRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
