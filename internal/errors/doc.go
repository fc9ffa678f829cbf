// Package errors provides structured, actionable errors for the runewire
// command line.
//
// Each error carries a code from the registry, a category, a short message
// and optionally a detail paragraph, a suggestion and the file location
// that caused it. Configuration and length table files are the usual
// sources, so a location includes the offending lines:
//
//	err := errors.New("R102").
//	    WithLocation("runewire.toml", 7, 15).
//	    WithSuggestion("Durations are strings such as \"60s\"")
//
//	errors.PrintError(err)
//	// Output:
//	// ERROR R102: Invalid configuration file
//	//
//	//   runewire.toml:7:15
//	//
//	//        5 │ [server]
//	//        6 │ address = ":43594"
//	//   →    7 │ idle_timeout = 60
//	//          │               ^
//	//
//	//   Hint: Durations are strings such as "60s"
//
// # Error Codes
//
//   - R1xx: configuration
//   - R2xx: length tables
//   - R3xx: server startup
package errors
