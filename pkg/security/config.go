// Package security holds the TLS settings shared by the dashboard listener
// and the store connection.
package security

// Config groups every TLS knob the service exposes.
type Config struct {
	TLS TLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// TLSConfig splits TLS settings by direction.
type TLSConfig struct {
	// Server secures the dashboard HTTP listener.
	Server ServerTLSConfig `json:"server,omitempty" yaml:"server,omitempty"`
	// Store secures the outbound Redis connection.
	Store StoreTLSConfig `json:"store,omitempty" yaml:"store,omitempty"`
}

// ServerTLSConfig configures the HTTPS listener.
type ServerTLSConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	CertFile   string `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile    string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	MinVersion string `json:"min_version,omitempty" yaml:"min_version,omitempty"` // "1.2" or "1.3"

	// ClientCAFiles enables client certificate verification when non-empty.
	ClientCAFiles     []string `json:"client_ca_files,omitempty" yaml:"client_ca_files,omitempty"`
	RequireClientCert bool     `json:"require_client_cert,omitempty" yaml:"require_client_cert,omitempty"`
}

// StoreTLSConfig configures TLS towards Redis. System roots are always
// trusted; CAFiles are added on top.
type StoreTLSConfig struct {
	Enabled            bool     `json:"enabled" yaml:"enabled"`
	ServerName         string   `json:"server_name,omitempty" yaml:"server_name,omitempty"`
	CAFiles            []string `json:"ca_files,omitempty" yaml:"ca_files,omitempty"`
	CertFile           string   `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	KeyFile            string   `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"` // dev only
	MinVersion         string   `json:"min_version,omitempty" yaml:"min_version,omitempty"`
}
