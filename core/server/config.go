package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"3001"`
	// ApiKey is the secret key required to access the API.
	// Empty disables authentication (local portal deployments).
	ApiKey string `mapstructure:"api_key" default:""`
}
