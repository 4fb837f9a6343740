// Public domain.

package pipeline

import (
	"io"
	"time"

	"github.com/goccy/go-yaml"
)

// Manifest records what a run did.  With the same inputs and seed a run
// repeats the processing order recorded here.
type Manifest struct {
	RunID     string           `yaml:"run_id"`
	Release   string           `yaml:"release"`
	Seed      uint64           `yaml:"seed"`
	Started   time.Time        `yaml:"started"`
	Finished  time.Time        `yaml:"finished"`
	Order     []string         `yaml:"order"`
	Pointings []PointingReport `yaml:"pointings"`
	Master    map[string]int   `yaml:"master"`
}

// PointingReport is the manifest entry of one pointing.
type PointingReport struct {
	ID                  string                   `yaml:"id"`
	RA                  float64                  `yaml:"ra"`
	Dec                 float64                  `yaml:"dec"`
	Reused              bool                     `yaml:"reused"`
	AstrometricError    float64                  `yaml:"astrometric_error,omitempty"`
	AstrometricFallback bool                     `yaml:"astrometric_fallback,omitempty"`
	ImageRMS            float64                  `yaml:"image_rms,omitempty"`
	ImageNoise          float64                  `yaml:"image_noise,omitempty"`
	Catalogs            map[string]CatalogReport `yaml:"catalogs"`
}

// CatalogReport counts the sources of one catalog of a pointing.  Total
// is zero for reused outputs.
type CatalogReport struct {
	Kept  int `yaml:"kept"`
	Total int `yaml:"total,omitempty"`
}

// WriteManifest writes m as YAML.
func WriteManifest(st Store, path string, m *Manifest) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return st.WriteFile(path, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
}

// ReadManifest parses a manifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
