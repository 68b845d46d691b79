package nn

import (
	"fmt"

	"github.com/born-ml/algodiff/internal/autodiff"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(4, 16, nil),
//	    nn.NewTanh(),
//	    nn.NewLinear(16, 3, nil),
//	)
//
//	output := model.Forward(input)
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(input autodiff.Variable) autodiff.Variable {
	output := input

	for _, module := range s.modules {
		output = module.Forward(output)
	}

	return output
}

// Parameters returns all trainable parameters from all modules, in module
// order.
func (s *Sequential) Parameters() []*autodiff.HogwildParameter {
	var params []*autodiff.HogwildParameter

	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}

	return params
}

// Add appends a module to the sequence.
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic(fmt.Sprintf("sequential: module %d out of range [0, %d)", index, len(s.modules)))
	}
	return s.modules[index]
}
