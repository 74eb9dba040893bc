package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dfornika/irida/internal/workspace"
	"github.com/dfornika/irida/types"
	"gopkg.in/yaml.v3"
)

// Submission is a loaded manifest: what to prepare and how to find the
// sample of each file.
type Submission struct {
	Submission types.Submission
	Samples    *workspace.MapLookup
	Uploads    []types.UploadSample
}

// LoadManifest reads a submission manifest. Relative file paths resolve
// against the manifest's directory.
func LoadManifest(filename string) (*Submission, error) {
	m, err := readManifest(filename)
	if err != nil {
		return nil, err
	}
	if err := ValidateManifest(m); err != nil {
		return nil, fmt.Errorf("validation error in %s: %w", filename, err)
	}
	return BuildSubmission(m, filepath.Dir(filename)), nil
}

// LoadUploadSamples reads only the samples of a manifest, for library
// uploads that bind no workflow.
func LoadUploadSamples(filename string) ([]types.UploadSample, error) {
	m, err := readManifest(filename)
	if err != nil {
		return nil, err
	}
	errs := validateSamples(m.Samples)
	errs = append(errs, validateLibraryNames(m.Samples)...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("validation error in %s: %w", filename,
			errors.New("manifest validation failed:\n- "+strings.Join(errs, "\n- ")))
	}
	return BuildSubmission(m, filepath.Dir(filename)).Uploads, nil
}

func readManifest(filename string) (*types.Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", filename, err)
	}

	var m types.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return &m, nil
}

// ValidateManifest checks fields only; duplicate files per sample are left
// for workspace preparation to reject.
func ValidateManifest(m *types.Manifest) error {
	var errs []string

	if m.Reference == "" {
		errs = append(errs, "field 'reference' is required")
	}
	if m.Workflow.ID == "" {
		errs = append(errs, "field 'workflow.id' is required")
	}
	if m.Workflow.SequenceFilesLabel == "" {
		errs = append(errs, "field 'workflow.sequence_files_label' is required")
	}
	if m.Workflow.ReferenceFileLabel == "" {
		errs = append(errs, "field 'workflow.reference_file_label' is required")
	}
	errs = append(errs, validateSamples(m.Samples)...)

	if len(errs) > 0 {
		return errors.New("manifest validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func validateSamples(samples []types.ManifestSample) []string {
	var errs []string
	if len(samples) == 0 {
		errs = append(errs, "at least one sample must be defined")
	}

	seen := make(map[string]bool, len(samples))
	for i, s := range samples {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("samples[%d]: field 'name' is required", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Sprintf("sample %q defined more than once", s.Name))
		}
		seen[s.Name] = true
		if len(s.Files) == 0 {
			errs = append(errs, fmt.Sprintf("sample %q: at least one file is required", s.Name))
		}
		for _, f := range s.Files {
			if strings.TrimSpace(f) == "" {
				errs = append(errs, fmt.Sprintf("sample %q: empty file path", s.Name))
			}
		}
	}
	return errs
}

// validateLibraryNames rejects samples with two files of the same base
// name, which would share one entry in the sample's library folder.
func validateLibraryNames(samples []types.ManifestSample) []string {
	var errs []string
	for _, s := range samples {
		seen := make(map[string]bool, len(s.Files))
		for _, f := range s.Files {
			base := filepath.Base(f)
			if seen[base] {
				errs = append(errs, fmt.Sprintf("sample %q: more than one file named %q", s.Name, base))
			}
			seen[base] = true
		}
	}
	return errs
}

// BuildSubmission assigns sequence file ids in manifest order.
func BuildSubmission(m *types.Manifest, baseDir string) *Submission {
	resolve := func(p string) string {
		if filepath.IsAbs(p) || baseDir == "" {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	out := &Submission{
		Submission: types.Submission{
			Name:      m.Name,
			Reference: types.ReferenceFile{Path: resolve(m.Reference)},
			Workflow: types.RemoteWorkflow{
				WorkflowID:         m.Workflow.ID,
				Checksum:           m.Workflow.Checksum,
				SequenceFilesLabel: m.Workflow.SequenceFilesLabel,
				ReferenceFileLabel: m.Workflow.ReferenceFileLabel,
			},
		},
		Samples: workspace.NewMapLookup(),
	}

	n := 0
	for _, s := range m.Samples {
		upload := types.UploadSample{Name: s.Name}
		for _, f := range s.Files {
			n++
			file := types.SequenceFile{ID: fmt.Sprintf("%d", n), Path: resolve(f)}
			out.Submission.InputFiles = append(out.Submission.InputFiles, file)
			out.Samples.Set(file.ID, types.Sample{Name: s.Name})
			upload.Files = append(upload.Files, file.Path)
		}
		out.Uploads = append(out.Uploads, upload)
	}
	return out
}
