package statistics

import (
	"math"
	"sort"

	"github.com/lox/dealersim/internal/dealer"
)

// Bucket is one histogram bar: how many hands finished on Value.
type Bucket struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// Summary describes the final dealer totals of one result set. The zero
// Summary is what an empty or missing result set produces.
type Summary struct {
	Count     int      `json:"count"`
	BustCount int      `json:"bust_count"`
	BustRate  float64  `json:"bust_rate"`
	Mean      float64  `json:"mean"`
	Median    float64  `json:"median"`
	StdDev    float64  `json:"std_dev"`
	StdError  float64  `json:"std_error"`
	CI95Low   float64  `json:"ci95_low"`
	CI95High  float64  `json:"ci95_high"`
	Min       int      `json:"min"`
	Max       int      `json:"max"`
	P25       float64  `json:"p25"`
	P75       float64  `json:"p75"`
	Histogram []Bucket `json:"histogram"`
}

// Frequency returns how many hands finished on value.
func (s Summary) Frequency(value int) int {
	i := sort.Search(len(s.Histogram), func(i int) bool { return s.Histogram[i].Value >= value })
	if i < len(s.Histogram) && s.Histogram[i].Value == value {
		return s.Histogram[i].Count
	}
	return 0
}

// Accumulator tracks dealer totals as rounds are added
type Accumulator struct {
	Hands  int
	Busts  int
	Sum    float64
	SumSq  float64 // Sum of squares for variance calculation
	Values []int   // All totals, kept for median/percentile calculation
	Counts map[int]int
}

// Add incorporates a new round into the accumulator
func (a *Accumulator) Add(r dealer.Round) {
	v := float64(r.HandValue)
	a.Hands++
	a.Sum += v
	a.SumSq += v * v
	a.Values = append(a.Values, r.HandValue)
	if r.IsBusted {
		a.Busts++
	}
	if a.Counts == nil {
		a.Counts = make(map[int]int)
	}
	a.Counts[r.HandValue]++
}

// Mean returns the arithmetic mean of all totals
func (a *Accumulator) Mean() float64 {
	if a.Hands == 0 {
		return 0
	}
	return a.Sum / float64(a.Hands)
}

// Variance returns the sample variance of all totals
func (a *Accumulator) Variance() float64 {
	if a.Hands < 2 {
		return 0
	}
	mean := a.Mean()
	v := (a.SumSq - float64(a.Hands)*mean*mean) / float64(a.Hands-1)
	if v < 0 {
		// rounding on near-constant samples
		return 0
	}
	return v
}

// StdDev returns the sample standard deviation of all totals
func (a *Accumulator) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

// StdError returns the standard error of the mean
func (a *Accumulator) StdError() float64 {
	if a.Hands == 0 {
		return 0
	}
	return a.StdDev() / math.Sqrt(float64(a.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (a *Accumulator) ConfidenceInterval95() (float64, float64) {
	mean := a.Mean()
	margin := 1.96 * a.StdError()
	return mean - margin, mean + margin
}

// BustRate returns the share of busted hands
func (a *Accumulator) BustRate() float64 {
	if a.Hands == 0 {
		return 0
	}
	return float64(a.Busts) / float64(a.Hands)
}

func (a *Accumulator) sorted() []float64 {
	sorted := make([]float64, len(a.Values))
	for i, v := range a.Values {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)
	return sorted
}

// Median returns the median of all totals
func (a *Accumulator) Median() float64 {
	return percentile(a.sorted(), 0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0),
// interpolating linearly between order statistics.
func (a *Accumulator) Percentile(p float64) float64 {
	return percentile(a.sorted(), p)
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Summary computes the descriptive statistics of everything added so far
func (a *Accumulator) Summary() Summary {
	if a.Hands == 0 {
		return Summary{Histogram: []Bucket{}}
	}

	sorted := a.sorted()
	low, high := a.ConfidenceInterval95()

	hist := make([]Bucket, 0, len(a.Counts))
	for v, n := range a.Counts {
		hist = append(hist, Bucket{Value: v, Count: n})
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].Value < hist[j].Value })

	return Summary{
		Count:     a.Hands,
		BustCount: a.Busts,
		BustRate:  a.BustRate(),
		Mean:      a.Mean(),
		Median:    percentile(sorted, 0.5),
		StdDev:    a.StdDev(),
		StdError:  a.StdError(),
		CI95Low:   low,
		CI95High:  high,
		Min:       int(sorted[0]),
		Max:       int(sorted[len(sorted)-1]),
		P25:       percentile(sorted, 0.25),
		P75:       percentile(sorted, 0.75),
		Histogram: hist,
	}
}

// Summarize computes the statistics of one strategy's rounds. A nil or empty
// slice yields the zero Summary with an empty histogram, never an error:
// early snapshots routinely have no data for a strategy yet.
func Summarize(rounds []dealer.Round) Summary {
	var a Accumulator
	for _, r := range rounds {
		a.Add(r)
	}
	return a.Summary()
}

// SummarizeAll merges every strategy's rounds into one summary.
func SummarizeAll(results map[int][]dealer.Round) Summary {
	var a Accumulator
	for _, rounds := range results {
		for _, r := range rounds {
			a.Add(r)
		}
	}
	return a.Summary()
}

// Row is one line of a strategy comparison.
type Row struct {
	Strategy int `json:"strategy"`
	Summary
}

// Compare builds one row per strategy in the order given. Strategies with no
// results get a zero row.
func Compare(strategies []int, results map[int][]dealer.Round) []Row {
	rows := make([]Row, 0, len(strategies))
	for _, s := range strategies {
		rows = append(rows, Row{Strategy: s, Summary: Summarize(results[s])})
	}
	return rows
}
