package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/dfornika/irida/types"
)

// MapLookup resolves samples from an in-memory file index, as built from a
// submission manifest.
type MapLookup struct {
	mx     sync.RWMutex
	byFile map[string]types.Sample
}

func NewMapLookup() *MapLookup {
	return &MapLookup{byFile: make(map[string]types.Sample)}
}

// Set records that the file with id belongs to sample.
func (l *MapLookup) Set(fileID string, sample types.Sample) {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.byFile[fileID] = sample
}

func (l *MapLookup) SampleForFile(_ context.Context, file types.SequenceFile) (types.Sample, error) {
	l.mx.RLock()
	defer l.mx.RUnlock()
	s, ok := l.byFile[file.ID]
	if !ok {
		return types.Sample{}, fmt.Errorf("no sample recorded for sequence file %s (%s)", file.ID, file.Path)
	}
	return s, nil
}
