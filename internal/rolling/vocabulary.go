package rolling

import (
	"sort"
	"strings"
)

// VocabEntry is a user-specific correction for a recurring transcription error.
type VocabEntry struct {
	Error      string `json:"error"`
	Correction string `json:"correction"`
	Frequency  int    `json:"frequency"`
}

type vocabulary struct {
	entries map[string]*VocabEntry
	order   []string
}

func newVocabulary() *vocabulary {
	return &vocabulary{entries: make(map[string]*VocabEntry)}
}

// add upserts by error form; an existing entry takes the new correction and
// its frequency is incremented.
func (v *vocabulary) add(errForm, correction string) VocabEntry {
	errForm = strings.TrimSpace(errForm)
	correction = strings.TrimSpace(correction)
	if e, ok := v.entries[errForm]; ok {
		e.Correction = correction
		e.Frequency++
		return *e
	}
	e := &VocabEntry{Error: errForm, Correction: correction, Frequency: 1}
	v.entries[errForm] = e
	v.order = append(v.order, errForm)
	return *e
}

func (v *vocabulary) load(entries []VocabEntry) {
	for _, e := range entries {
		if strings.TrimSpace(e.Error) == "" {
			continue
		}
		if _, ok := v.entries[e.Error]; !ok {
			v.order = append(v.order, e.Error)
		}
		copied := e
		if copied.Frequency < 1 {
			copied.Frequency = 1
		}
		v.entries[e.Error] = &copied
	}
}

// top returns up to n entries by descending frequency; insertion order breaks ties.
func (v *vocabulary) top(n int) []VocabEntry {
	if n <= 0 || len(v.order) == 0 {
		return nil
	}
	all := make([]VocabEntry, 0, len(v.order))
	for _, key := range v.order {
		all = append(all, *v.entries[key])
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Frequency > all[j].Frequency })
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func (v *vocabulary) len() int { return len(v.order) }
