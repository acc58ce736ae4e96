package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedUser is a bootstrap account. Managers cannot register through the API,
// so they come from here.
type SeedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

type Seed struct {
	Users []SeedUser `yaml:"users"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, u := range seed.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user %d: email and password are required", i)
		}
		if u.Role != "manager" && u.Role != "user" {
			return nil, fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}
	}
	return &seed, nil
}
