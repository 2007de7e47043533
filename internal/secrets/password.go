package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app’s secrets in the OS keychain.
	KeyringService = "jobscout"

	OracleKeyEnv = "JOBSCOUT_ORACLE_API_KEY"
)

var ErrNoOracleKey = errors.New("oracle API key not found (set it in keychain or via " + OracleKeyEnv + ")")

// GetOracleKey resolves the oracle API key: keychain first, then env.
func GetOracleKey(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		key, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), nil
		}
	}

	if key := strings.TrimSpace(os.Getenv(OracleKeyEnv)); key != "" {
		return key, nil
	}
	return "", ErrNoOracleKey
}

func SetOracleKey(keyringAccount string, key string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

func DeleteOracleKey(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}
