package config

import (
	"github.com/edaconf/edaconf/pkg/controller"
	"github.com/edaconf/edaconf/pkg/engine"
	"github.com/edaconf/edaconf/pkg/resources"
)

// Manifest is one declarative configuration document: where the controller
// is and what should exist in it.
type Manifest struct {
	// Controller is the connection configuration.
	Controller controller.Config `yaml:"controller" json:"controller" validate:"required"`

	// Activations are the declared rulebook activations.
	Activations []resources.Activation `yaml:"activations,omitempty" json:"activations,omitempty" validate:"dive"`

	// Users are the declared controller users.
	Users []resources.User `yaml:"users,omitempty" json:"users,omitempty" validate:"dive"`
}

// Specs returns every declared resource as an engine.Spec, activations
// first. Order within a kind follows the manifest.
func (m *Manifest) Specs() []engine.Spec {
	specs := make([]engine.Spec, 0, len(m.Activations)+len(m.Users))
	for i := range m.Activations {
		specs = append(specs, &m.Activations[i])
	}
	for i := range m.Users {
		specs = append(specs, &m.Users[i])
	}
	return specs
}
