package pallets

import "time"

// Summary bundles the counts reported after a run.
type Summary struct {
	Name            string    `json:"name" yaml:"name"`
	URL             string    `json:"url" yaml:"url"`
	Total           int       `json:"total" yaml:"total"`
	Hits            int       `json:"hits" yaml:"hits"`
	Misses          int       `json:"misses" yaml:"misses"`
	OriginalMisses  int       `json:"original_misses" yaml:"original_misses"`
	Attempted       int       `json:"attempted" yaml:"attempted"`
	RegistrationRun bool      `json:"registration_run" yaml:"registration_run"`
	Created         time.Time `json:"created" yaml:"created"`
	Updated         time.Time `json:"updated" yaml:"updated"`
}

// Summary returns the pallet counts. It fails with a precondition error
// before the first completed reconciliation pass.
func (p *Pallet) Summary() (Summary, error) {
	if err := p.requireQueried("summarize"); err != nil {
		return Summary{}, err
	}
	s := Summary{
		Name:            p.name,
		URL:             p.url,
		Total:           len(p.items),
		Attempted:       p.AttemptedCount(),
		RegistrationRun: p.registrationRun,
		Created:         p.created,
		Updated:         p.updated,
	}
	for _, item := range p.items {
		switch item.Presence {
		case Present:
			s.Hits++
		case Absent:
			s.Misses++
		}
		if item.OriginallyMissing() {
			s.OriginalMisses++
		}
	}
	return s, nil
}
