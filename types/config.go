package types

import "time"

// OutputStyle selects what the CLI prints to stdout.
type OutputStyle int

const (
	StyleHuman OutputStyle = iota
	StyleHumanVerbose
	StyleMachineJSON
)

// Config is the top-level shape of irida.yml.
type Config struct {
	Galaxy GalaxyConfig `yaml:"galaxy"`

	Config struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"config"`

	Storage StorageConfig `yaml:"storage"`
}

type GalaxyConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type StorageConfig struct {
	ProvenanceDB string `yaml:"provenance_db"`
	RecordsURL   string `yaml:"records_url"`
}

// Manifest describes one submission on disk: which local files belong to
// which sample, the reference and the remote workflow to bind them to.
type Manifest struct {
	Name      string           `yaml:"name"`
	Reference string           `yaml:"reference"`
	Workflow  ManifestWorkflow `yaml:"workflow"`
	Samples   []ManifestSample `yaml:"samples"`
}

type ManifestWorkflow struct {
	ID                 string `yaml:"id"`
	Checksum           string `yaml:"checksum,omitempty"`
	SequenceFilesLabel string `yaml:"sequence_files_label"`
	ReferenceFileLabel string `yaml:"reference_file_label"`
}

type ManifestSample struct {
	Name  string   `yaml:"name"`
	Files []string `yaml:"files"`
}
