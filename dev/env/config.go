package devenv

import (
	"errors"
	"os"
)

// SeiTestConfig holds the credentials of a real student account, tests that need it talk to the
// live portal.
type SeiTestConfig struct {
	// BaseUrl is optional, the client falls back to the production portal.
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ErrNoCredentials means no live account was configured, tests should skip.
var ErrNoCredentials = errors.New("no live portal credentials configured")

// GetSeiTestConfig reads the credentials from APP_USERNAME and APP_PASSWORD, falling back to
// dev/.state/sei_config.json5.
func GetSeiTestConfig() (SeiTestConfig, error) {
	config := SeiTestConfig{
		BaseUrl:  os.Getenv("APP_BASE_URL"),
		Username: os.Getenv("APP_USERNAME"),
		Password: os.Getenv("APP_PASSWORD"),
	}
	if config.Username == "" || config.Password == "" {
		stored, err := GetStateConfig[SeiTestConfig]("sei_config.json5")
		if os.IsNotExist(err) {
			return SeiTestConfig{}, ErrNoCredentials
		}
		if err != nil {
			return SeiTestConfig{}, err
		}
		config = stored
	}
	if config.Username == "" || config.Password == "" {
		return SeiTestConfig{}, ErrNoCredentials
	}
	return config, nil
}
