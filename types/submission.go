package types

import (
	"fmt"
	"net/mail"
	"path/filepath"
	"strings"
)

type Sample struct {
	Name string `json:"name"`
}

// SequenceFile is a local sequencing read file. ID is assigned by the
// manifest loader and is unique within a submission.
type SequenceFile struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type ReferenceFile struct {
	Path string `json:"path"`
}

// InputFileType is the datatype the remote engine assigns on upload.
type InputFileType string

const (
	FileTypeFastqSanger InputFileType = "fastqsanger"
	FileTypeFasta       InputFileType = "fasta"
	FileTypeAuto        InputFileType = "auto"
)

// DetectFileType guesses the datatype from the file extension.
func DetectFileType(path string) InputFileType {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	switch filepath.Ext(name) {
	case ".fastq", ".fq":
		return FileTypeFastqSanger
	case ".fasta", ".fa", ".fna":
		return FileTypeFasta
	default:
		return FileTypeAuto
	}
}

// RemoteWorkflow identifies a workflow installed on the execution engine and
// the labels of the input steps that receive the submission's data.
type RemoteWorkflow struct {
	WorkflowID         string `json:"workflow_id"`
	Checksum           string `json:"checksum,omitempty"`
	SequenceFilesLabel string `json:"sequence_files_label"`
	ReferenceFileLabel string `json:"reference_file_label"`
}

// Submission is a unit of analysis work prior to execution.
type Submission struct {
	Name       string         `json:"name"`
	InputFiles []SequenceFile `json:"input_files"`
	Reference  ReferenceFile  `json:"reference"`
	Workflow   RemoteWorkflow `json:"workflow"`
}

const (
	InputSequenceFiles = "sequence-files"
	InputReferenceFile = "reference-file"
)

const (
	SourceCollection = "hdca"
	SourceDataset    = "hda"
)

// InputBinding maps a workflow input step to a remote dataset or collection.
type InputBinding struct {
	InputID string `json:"input_id"`
	Source  string `json:"src"`
	ID      string `json:"id"`
}

// PreparedWorkflow is the result of preparing a submission: the workspace it
// was uploaded into and the bindings ready to invoke the workflow with.
type PreparedWorkflow struct {
	WorkspaceID string                  `json:"workspace_id"`
	Inputs      map[string]InputBinding `json:"inputs"`
}

// Input returns the binding for key, if present.
func (p PreparedWorkflow) Input(key string) (InputBinding, bool) {
	b, ok := p.Inputs[key]
	return b, ok
}

// UploadSample is a sample and the local files to place in its library folder.
type UploadSample struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// LibraryName names a destination data library on the remote engine.
type LibraryName string

func (n LibraryName) Validate() error {
	if strings.TrimSpace(string(n)) == "" {
		return fmt.Errorf("library name is empty")
	}
	return nil
}

// AccountEmail is the account that owns an uploaded library.
type AccountEmail string

func (e AccountEmail) Validate() error {
	if e == "" {
		return fmt.Errorf("account email is empty")
	}
	addr, err := mail.ParseAddress(string(e))
	if err != nil || addr.Address != string(e) {
		return fmt.Errorf("account email %q is not a valid address", string(e))
	}
	return nil
}
