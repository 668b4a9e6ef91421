package output

// ConfigPort is the source of raw configuration values, keyed by variable
// name.
type ConfigPort interface {
	Environ() map[string]string
}
