// Package badger provides options for the embedded Badger key-value store.
package badger

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/unirag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains Badger settings.
type Options struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string `json:"dir" mapstructure:"dir"`
	// InMemory keeps all data in memory.
	InMemory bool `json:"in-memory" mapstructure:"in-memory"`
	// SyncWrites fsyncs every write.
	SyncWrites bool `json:"sync-writes" mapstructure:"sync-writes"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Dir: "_output/badger",
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "badger."
	fs.StringVar(&o.Dir, p+"dir", o.Dir, "Badger data directory.")
	fs.BoolVar(&o.InMemory, p+"in-memory", o.InMemory, "Keep Badger data in memory only.")
	fs.BoolVar(&o.SyncWrites, p+"sync-writes", o.SyncWrites, "Fsync every Badger write.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	if !o.InMemory && o.Dir == "" {
		return []error{fmt.Errorf("badger.dir is required unless badger.in-memory is set")}
	}
	return nil
}
