package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (R100-R199)
	"R101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "The file passed with --config does not exist.",
	},
	"R102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file is not valid TOML or a value has the wrong type.",
	},
	"R103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"R104": {
		Category: CategoryConfig,
		Message:  "Unknown configuration key",
		Detail:   "The configuration file sets a key runewire does not read. It is usually a typo or a key from another section.",
	},

	// Length tables (R200-R299)
	"R201": {
		Category: CategoryTable,
		Message:  "Length table not found",
	},
	"R202": {
		Category: CategoryTable,
		Message:  "Invalid length table",
		Detail:   "A length table is a YAML document with a revision and a lengths map from opcode to length. Lengths are -1 for variable frames or 0 to 255 for fixed frames.",
	},
	"R203": {
		Category: CategoryTable,
		Message:  "Length table download failed",
		Detail:   "The table could not be fetched from S3. Check the bucket, key, region and the AWS credentials in the environment.",
	},
	"R204": {
		Category: CategoryTable,
		Message:  "Length table revision mismatch",
		Detail:   "The table describes a different client revision than the one the server accepts at login.",
	},

	// Server (R300-R399)
	"R301": {
		Category: CategoryServer,
		Message:  "Failed to start listener",
		Detail:   "The game or admin address could not be bound. Another process may be using the port.",
	},
	"R302": {
		Category: CategoryServer,
		Message:  "Server stopped with an error",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
