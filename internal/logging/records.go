package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dfornika/irida/internal/models"
	"github.com/google/uuid"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob" // gs:// records
	_ "gocloud.dev/blob/memblob" // mem:// records
	_ "gocloud.dev/blob/s3blob"  // s3:// records
)

// DefaultRecordsDir holds execution records when no bucket URL is configured.
var DefaultRecordsDir = filepath.Join(".irida", "records")

// RecordSink writes execution records of one run under a common prefix,
// e.g. "20250423T213245_prepare_3c43e9f4-9026-4d04-ba06-054e8903e80a/".
type RecordSink struct {
	bucket *blob.Bucket
	prefix string
}

// RunPrefix names the record directory of a run.
func RunPrefix(runId uuid.UUID, runStartTime time.Time, cmd string) string {
	return fmt.Sprintf("%s_%s_%s", runStartTime.Format("20060102T150405"), cmd, runId)
}

// OpenRecordSink opens the bucket at bucketURL (file://, mem://, s3://, gs://).
// An empty URL selects DefaultRecordsDir on the local filesystem.
func OpenRecordSink(ctx context.Context, bucketURL, prefix string) (*RecordSink, error) {
	if bucketURL == "" {
		dir, err := filepath.Abs(DefaultRecordsDir)
		if err != nil {
			return nil, err
		}
		bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{CreateDir: true})
		if err != nil {
			return nil, fmt.Errorf("open records directory %s: %w", dir, err)
		}
		return NewRecordSink(bucket, prefix), nil
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open records bucket %s: %w", bucketURL, err)
	}
	return NewRecordSink(bucket, prefix), nil
}

func NewRecordSink(bucket *blob.Bucket, prefix string) *RecordSink {
	return &RecordSink{bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *RecordSink) Prefix() string { return s.prefix }

func (s *RecordSink) Close() error { return s.bucket.Close() }

// RecordKey is the object key of a task record, relative to the run prefix.
func RecordKey(record models.TaskRecord) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '_'
		}
		return r
	}, record.TaskName)
	return fmt.Sprintf("%s_%s.json", strings.ToUpper(record.Kind), name)
}

// SaveTaskRecord stores the detailed record for a single task.
func (s *RecordSink) SaveTaskRecord(ctx context.Context, record models.TaskRecord) error {
	return s.writeJSON(ctx, RecordKey(record), record)
}

func (s *RecordSink) SaveSummary(ctx context.Context, summary models.ExecutionSummary) error {
	return s.writeJSON(ctx, "summary.json", summary)
}

// LoadSummary reads summary.json of the run.
func (s *RecordSink) LoadSummary(ctx context.Context) (models.ExecutionSummary, error) {
	var summary models.ExecutionSummary
	key := path.Join(s.prefix, "summary.json")
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return summary, fmt.Errorf("open %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, fmt.Errorf("decode %s: %w", key, err)
	}
	return summary, nil
}

func (s *RecordSink) writeJSON(ctx context.Context, name string, v any) error {
	key := path.Join(s.prefix, name)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}

	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		w.Close()
		return fmt.Errorf("write record to %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}
	return nil
}
