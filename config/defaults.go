package config

import (
	"encoding/json"
	"os"
)

// DefaultCredentials pre-fill the login form when no defaults file exists
var DefaultCredentials = Credentials{
	Host:     "ftp.example.com",
	Username: "anonymous",
	Password: "",
}

// LoadDefaults reads login defaults from a JSON file. A missing or malformed
// file yields DefaultCredentials.
func LoadDefaults(path string) Credentials {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultCredentials
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return DefaultCredentials
	}
	return creds
}
