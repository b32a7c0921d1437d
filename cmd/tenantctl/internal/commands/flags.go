package commands

import "errors"

// MetadataFlags configures the fixed-location metadata database.
type MetadataFlags struct {
	ConnString  string `help:"metadata database connection string" env:"TALENTWIRE_METADATA_CONN_STRING"`
	MaxConns    int32  `help:"maximum number of connections in the metadata pool" default:"4"`
	MinConns    int32  `help:"minimum number of connections in the metadata pool" default:"1"`
	AutoMigrate bool   `help:"run metadata migrations before the command" default:"false" env:"TALENTWIRE_METADATA_AUTO_MIGRATE"`
}

func (f *MetadataFlags) Validate() error {
	if f.ConnString == "" {
		return errors.New("metadata connection string is required (--metadata-conn-string or TALENTWIRE_METADATA_CONN_STRING)")
	}
	return nil
}

// TenantFlags configures where new tenant databases are created.
type TenantFlags struct {
	Host           string `help:"database server hosting tenant databases" default:"localhost" env:"TALENTWIRE_TENANT_HOST"`
	Port           int    `help:"database server port" default:"5432" env:"TALENTWIRE_TENANT_PORT"`
	SSLMode        string `help:"sslmode for tenant connections" default:"prefer" env:"TALENTWIRE_TENANT_SSLMODE"`
	MaxConns       int32  `help:"maximum connections per tenant pool" default:"4"`
	ConnectTimeout int32  `help:"tenant connect timeout in seconds" default:"10"`
}
