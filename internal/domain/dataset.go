package domain

import (
	"fmt"
	"sort"
)

// Dataset holds the precomputed series families delivered for one ChartConfig.
type Dataset struct {
	Config    ChartConfig        `json:"config"`
	Candles   *Series            `json:"candles"`
	Volume    *Series            `json:"volume"`
	Averages  map[string]*Series `json:"averages"`
	Technical map[string]*Series `json:"technical"`
}

// NewDataset returns an empty dataset for cfg with every family allocated.
func NewDataset(cfg ChartConfig) *Dataset {
	return &Dataset{
		Config:    cfg,
		Candles:   &Series{Name: CandlestickSeries, Role: RolePrice},
		Volume:    &Series{Name: VolumeSeries, Role: RoleVolume},
		Averages:  make(map[string]*Series),
		Technical: make(map[string]*Series),
	}
}

// AddAverage stores an overlay series, assigning the band or average role from its name.
func (d *Dataset) AddAverage(name string, points []Point) {
	role := RoleOverlayAverage
	if IsBand(name) {
		role = RoleBand
	}
	d.Averages[name] = &Series{Name: name, Role: role, Points: points}
}

// AddTechnical stores an oscillator sub-line.
func (d *Dataset) AddTechnical(key string, points []Point) {
	d.Technical[key] = &Series{Name: key, Role: RoleOscillator, Points: points}
}

// Validate checks every series for strictly increasing timestamps and
// finite values.
func (d *Dataset) Validate() error {
	for _, s := range d.All() {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("dataset %s: %w", d.Config.Key(), err)
		}
	}
	return nil
}

// All returns every series in a deterministic order: candles, volume,
// averages by period, bands, then technical lines by name.
func (d *Dataset) All() []*Series {
	out := make([]*Series, 0, 2+len(d.Averages)+len(d.Technical))
	if d.Candles != nil {
		out = append(out, d.Candles)
	}
	if d.Volume != nil {
		out = append(out, d.Volume)
	}
	for _, name := range SortAverageNames(keys(d.Averages)) {
		out = append(out, d.Averages[name])
	}
	tech := keys(d.Technical)
	sort.Strings(tech)
	for _, name := range tech {
		out = append(out, d.Technical[name])
	}
	return out
}

// SortAverageNames orders moving averages by ascending period, with bands
// and unparseable names after them in lexical order.
func SortAverageNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, oki := AveragePeriod(out[i])
		pj, okj := AveragePeriod(out[j])
		bi, bj := IsBand(out[i]) || !oki, IsBand(out[j]) || !okj
		switch {
		case bi != bj:
			return !bi
		case !bi && pi != pj:
			return pi < pj
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func keys(m map[string]*Series) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
