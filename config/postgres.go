package config

import (
	"fmt"
	"math"

	"github.com/artie-labs/transfer/lib/stringutil"
)

// Postgres is the target Invenio-RDM database.
type Postgres struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	DisableSSL bool   `yaml:"disableSSL"`
	// UseCopy loads runs of insert-only entities with COPY instead of INSERT ... ON CONFLICT.
	UseCopy bool `yaml:"useCopy"`
}

func (p *Postgres) ConnectionString() string {
	connString := fmt.Sprintf("user=%s dbname=%s password=%s port=%d host=%s",
		p.Username, p.Database, p.Password, p.Port, p.Host)

	if p.DisableSSL {
		connString = fmt.Sprintf("%s sslmode=disable", connString)
	}

	return connString
}

func (p *Postgres) Validate() error {
	if p == nil {
		return fmt.Errorf("the PostgreSQL config is nil")
	}

	if stringutil.Empty(p.Host, p.Username, p.Password, p.Database) {
		return fmt.Errorf("one of the PostgreSQL settings is empty: host, username, password, database")
	}

	if p.Port <= 0 {
		return fmt.Errorf("port is not set or <= 0")
	} else if p.Port > math.MaxUint16 {
		return fmt.Errorf("port is > %d", math.MaxUint16)
	}

	return nil
}
