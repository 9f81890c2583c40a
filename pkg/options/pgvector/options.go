// Package pgvector provides options for the PostgreSQL + pgvector vector store.
package pgvector

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/pflag"

	"github.com/kart-io/unirag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains PostgreSQL connection settings for the pgvector backend.
type Options struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"ssl-mode" mapstructure:"ssl-mode"`
	Table    string `json:"table" mapstructure:"table"`
	MaxConns int    `json:"max-conns" mapstructure:"max-conns"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Host:     "127.0.0.1",
		Port:     5432,
		Username: "postgres",
		Database: "unirag",
		SSLMode:  "disable",
		Table:    "universities",
		MaxConns: 10,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "pgvector."
	fs.StringVar(&o.Host, p+"host", o.Host, "PostgreSQL host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "PostgreSQL port.")
	fs.StringVar(&o.Username, p+"username", o.Username, "PostgreSQL user.")
	fs.StringVar(&o.Password, p+"password", o.Password, "PostgreSQL password (or PGPASSWORD env var).")
	fs.StringVar(&o.Database, p+"database", o.Database, "PostgreSQL database.")
	fs.StringVar(&o.SSLMode, p+"ssl-mode", o.SSLMode, "PostgreSQL sslmode.")
	fs.StringVar(&o.Table, p+"table", o.Table, "Table holding university chunks.")
	fs.IntVar(&o.MaxConns, p+"max-conns", o.MaxConns, "Maximum open connections.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Host == "" {
		errs = append(errs, fmt.Errorf("pgvector.host is required"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("pgvector.port is invalid: %d", o.Port))
	}
	if o.Table == "" {
		errs = append(errs, fmt.Errorf("pgvector.table is required"))
	}
	return errs
}

// DSN returns a lib/pq connection URL.
func (o *Options) DSN() string {
	password := o.Password
	if password == "" {
		password = os.Getenv("PGPASSWORD")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.Username, password),
		Host:     fmt.Sprintf("%s:%d", o.Host, o.Port),
		Path:     "/" + o.Database,
		RawQuery: "sslmode=" + url.QueryEscape(o.SSLMode),
	}
	return u.String()
}
