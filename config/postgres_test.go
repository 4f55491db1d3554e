package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgres_Validate(t *testing.T) {
	{
		// Config is empty
		var p *Postgres
		assert.ErrorContains(t, p.Validate(), "the PostgreSQL config is nil")
	}
	{
		// Host, username, password, database are empty
		p := &Postgres{}
		assert.ErrorContains(t, p.Validate(), "one of the PostgreSQL settings is empty: host, username, password, database")
	}
	{
		// Port is -1
		p := &Postgres{Host: "host", Port: -1, Username: "username", Password: "password", Database: "database"}
		assert.ErrorContains(t, p.Validate(), "port is not set or <= 0")
	}
	{
		// Port is too big
		p := &Postgres{Host: "host", Port: 1_000_000, Username: "username", Password: "password", Database: "database"}
		assert.ErrorContains(t, p.Validate(), "port is > 65535")
	}
	{
		// Valid
		p := &Postgres{Host: "host", Port: 5432, Username: "username", Password: "password", Database: "database"}
		assert.NoError(t, p.Validate())
	}
}

func TestPostgres_ConnectionString(t *testing.T) {
	p := &Postgres{Host: "localhost", Port: 5432, Username: "zenodo", Password: "zenodo", Database: "zenodo"}
	assert.Equal(t, "user=zenodo dbname=zenodo password=zenodo port=5432 host=localhost", p.ConnectionString())

	p.DisableSSL = true
	assert.Equal(t, "user=zenodo dbname=zenodo password=zenodo port=5432 host=localhost sslmode=disable", p.ConnectionString())
}
