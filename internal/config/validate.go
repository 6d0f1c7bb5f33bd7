package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors and returns validation results.
// It returns both errors (fatal) and warnings (non-fatal issues).
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.Database.validate(result)
	c.Server.validate(result)
	c.Explorer.validate(result)
	c.Export.validate(result)
	c.Observability.validate(result)

	return result
}

func (d *DatabaseConfig) validate(result *ValidationResult) {
	switch d.Driver {
	case "sqlite", "sqlite3":
		if strings.TrimSpace(d.Path) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.path",
				Message: "sqlite driver requires a database file path",
				Hint:    "point database.path at the Plex library database",
			})
		}
	case "mysql":
		if strings.TrimSpace(d.ConnectionString) == "" {
			if strings.TrimSpace(d.Host) == "" {
				result.Errors = append(result.Errors, ValidationError{
					Field:   "database.host",
					Message: "mysql driver requires a host or a DSN",
				})
			}
			if strings.TrimSpace(d.Database) == "" {
				result.Errors = append(result.Errors, ValidationError{
					Field:   "database.database",
					Message: "mysql driver requires a database name or a DSN",
				})
			}
			if d.Port <= 0 || d.Port > 65535 {
				result.Errors = append(result.Errors, ValidationError{
					Field:   "database.port",
					Message: fmt.Sprintf("invalid port %d", d.Port),
					Hint:    "must be between 1 and 65535",
				})
			}
		}
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.driver",
			Message: fmt.Sprintf("unknown driver %q", d.Driver),
			Hint:    "supported drivers are sqlite and mysql",
		})
	}

	if d.Pool.MaxIdle > d.Pool.MaxOpen && d.Pool.MaxOpen > 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "database.pool.max_idle",
			Message: fmt.Sprintf("max_idle (%d) exceeds max_open (%d)", d.Pool.MaxIdle, d.Pool.MaxOpen),
			Hint:    "idle connections beyond max_open are discarded",
		})
	}
}

func (s *ServerConfig) validate(result *ValidationResult) {
	if s.Port <= 0 || s.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("invalid port %d", s.Port),
			Hint:    "must be between 1 and 65535",
		})
	}
	if s.CORS.Enabled && len(s.CORS.AllowedOrigins) == 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "server.cors.allowed_origins",
			Message: "CORS is enabled but no origins are allowed",
			Hint:    "add origins or disable server.cors.enabled",
		})
	}
	for _, origin := range s.CORS.AllowedOrigins {
		if origin == "*" && s.CORS.AllowCredentials {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.cors.allowed_origins",
				Message: "wildcard origin cannot be combined with allow_credentials",
				Hint:    "list explicit origins when credentials are allowed",
			})
			break
		}
	}
}

func (e *ExplorerConfig) validate(result *ValidationResult) {
	if e.MaxLimit <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "explorer.max_limit",
			Message: fmt.Sprintf("must be positive, got %d", e.MaxLimit),
		})
	}
	if e.DefaultLimit <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "explorer.default_limit",
			Message: fmt.Sprintf("must be positive, got %d", e.DefaultLimit),
		})
	}
	if e.DefaultLimit > e.MaxLimit && e.MaxLimit > 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "explorer.default_limit",
			Message: fmt.Sprintf("default_limit (%d) exceeds max_limit (%d)", e.DefaultLimit, e.MaxLimit),
			Hint:    "the effective default is clamped to max_limit",
		})
	}
	if e.EnumSampleSize <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "explorer.enum_sample_size",
			Message: fmt.Sprintf("must be positive, got %d", e.EnumSampleSize),
		})
	}
	switch e.AnchorMode {
	case "narrow", "replace":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "explorer.anchor_mode",
			Message: fmt.Sprintf("unknown mode %q", e.AnchorMode),
			Hint:    "supported modes are narrow and replace",
		})
	}
}

func (e *ExportConfig) validate(result *ValidationResult) {
	if !e.Enabled {
		return
	}
	if strings.TrimSpace(e.OutputDir) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "export.output_dir",
			Message: "exports are enabled but no output directory is set",
		})
	}
	if _, err := cron.ParseStandard(e.Schedule); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "export.schedule",
			Message: fmt.Sprintf("invalid cron schedule %q: %v", e.Schedule, err),
			Hint:    "use a standard 5-field cron expression or a descriptor like @hourly",
		})
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	switch o.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.level",
			Message: fmt.Sprintf("unknown level %q", o.Logging.Level),
			Hint:    "supported levels are debug, info, warn, error",
		})
	}
	switch o.Logging.Format {
	case "json", "text", "":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.format",
			Message: fmt.Sprintf("unknown format %q", o.Logging.Format),
			Hint:    "supported formats are json and text",
		})
	}
	if strings.TrimSpace(o.ServiceName) == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "observability.service_name",
			Message: "service name is empty",
		})
	}
}
