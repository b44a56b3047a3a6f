package handler

import (
	"time"

	"github.com/msomdec/gadget-registry/internal/domain"
	"github.com/msomdec/gadget-registry/internal/service"
)

// UserDTO is the JSON representation of a user. It never carries the
// password hash.
type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID.String(),
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// GadgetDTO is the JSON representation of a gadget.
type GadgetDTO struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Codename         string  `json:"codename"`
	Status           string  `json:"status"`
	DecommissionedAt *string `json:"decommissionedAt"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
	// Only set on list responses; see service.GadgetView.
	MissionSuccessProbability string `json:"missionSuccessProbability,omitempty"`
}

func toGadgetDTO(g *domain.Gadget) GadgetDTO {
	dto := GadgetDTO{
		ID:        g.ID.String(),
		Name:      g.Name,
		Codename:  g.Codename,
		Status:    string(g.Status),
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: g.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if g.DecommissionedAt != nil {
		s := g.DecommissionedAt.UTC().Format(time.RFC3339)
		dto.DecommissionedAt = &s
	}
	return dto
}

func toGadgetViewDTOs(views []service.GadgetView) []GadgetDTO {
	dtos := make([]GadgetDTO, len(views))
	for i := range views {
		dtos[i] = toGadgetDTO(&views[i].Gadget)
		dtos[i].MissionSuccessProbability = views[i].MissionSuccessProbability
	}
	return dtos
}

// SelfDestructDTO is the payload of a successful self-destruct.
type SelfDestructDTO struct {
	Gadget           GadgetDTO `json:"gadget"`
	ConfirmationCode string    `json:"confirmationCode"`
}
