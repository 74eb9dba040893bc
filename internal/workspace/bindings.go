package workspace

import (
	"sort"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/types"
)

// sampleBindings maps sample names to the datasets uploaded for them.
type sampleBindings struct {
	bySample map[string][]string
}

func newSampleBindings() *sampleBindings {
	return &sampleBindings{bySample: make(map[string][]string)}
}

func (b *sampleBindings) add(sample, datasetID string) {
	b.bySample[sample] = append(b.bySample[sample], datasetID)
}

// duplicates returns, sorted, every sample bound to more than one dataset.
func (b *sampleBindings) duplicates() []string {
	var dups []string
	for name, ids := range b.bySample {
		if len(ids) > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// collection describes a list collection with one element per sample,
// named after the sample and ordered by name.
func (b *sampleBindings) collection() remote.CollectionDescription {
	names := make([]string, 0, len(b.bySample))
	for name := range b.bySample {
		names = append(names, name)
	}
	sort.Strings(names)

	desc := remote.CollectionDescription{
		Name:           CollectionName,
		CollectionType: "list",
		Elements:       make([]remote.CollectionElement, 0, len(names)),
	}
	for _, name := range names {
		desc.Elements = append(desc.Elements, remote.CollectionElement{
			Name: name,
			Src:  types.SourceDataset,
			ID:   b.bySample[name][0],
		})
	}
	return desc
}
