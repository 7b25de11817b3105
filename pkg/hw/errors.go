package hw

// PinNotFoundError indicates a pin name not in the registry.
type PinNotFoundError struct {
	Name string
}

// Error implements error.
func (e *PinNotFoundError) Error() string {
	return "pin not found: " + e.Name
}
