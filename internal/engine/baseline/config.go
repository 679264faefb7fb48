package baseline

// Config carries the tunables of the baseline compiler. Zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// StackSizeKB is the wasm stack budget in KiB. A function whose frame
	// would exceed it traps at the stack check.
	StackSizeKB int `json:"stack_size_kb" envconfig:"RIVET_STACK_SIZE_KB"`
	// DebugCode adds breakpoint instructions on slow paths that should be
	// unreachable in well-formed modules.
	DebugCode bool `json:"debug_code" envconfig:"RIVET_DEBUG_CODE"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{StackSizeKB: 984}
}
