package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Seed bootstraps roles and the skill catalogue at startup.
//
//	[[administrators]]
//	domain  = 1
//	account = "0xabc"
//
//	[[skills]]
//	id         = 1
//	deprecated = false
type Seed struct {
	Administrators []AdministratorSeed `toml:"administrators"`
	Skills         []SkillSeed         `toml:"skills"`
}

type AdministratorSeed struct {
	Domain  uint64 `toml:"domain"`
	Account string `toml:"account"`
}

type SkillSeed struct {
	ID         uint64 `toml:"id"`
	Deprecated bool   `toml:"deprecated"`
}

// LoadSeed reads a TOML seed file. An empty path yields an empty seed.
func LoadSeed(path string) (Seed, error) {
	var seed Seed
	if path == "" {
		return seed, nil
	}
	md, err := toml.DecodeFile(path, &seed)
	if err != nil {
		return Seed{}, fmt.Errorf("decode seed file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Seed{}, fmt.Errorf("seed file has unknown keys: %v", undecoded)
	}
	for _, a := range seed.Administrators {
		if a.Domain == 0 || a.Account == "" {
			return Seed{}, fmt.Errorf("seed administrator needs a positive domain and an account")
		}
	}
	for _, s := range seed.Skills {
		if s.ID == 0 {
			return Seed{}, fmt.Errorf("seed skill ids start at 1")
		}
	}
	return seed, nil
}
