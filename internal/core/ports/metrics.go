package ports

// Sink publishes a single named scalar.
type Sink interface {
	Set(value float64)
}
