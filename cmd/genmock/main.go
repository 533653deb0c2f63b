// Command genmock writes synthetic source files in the exact formats the
// pipeline reads, plus a matching county gazetteer, for local runs and demos.
//
// Usage:
//
//	go run ./cmd/genmock -out data -counties 25 -months 24 -seed 7
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

// File names match the config defaults.
const (
	employmentFile   = "federalEmploymentByCounty.csv"
	unemploymentFile = "unemploymentByCounty.csv"
	snapFile         = "snapParticipationByCounty.csv"
	costFile         = "costOfLivingByCounty.csv"
	gazetteerFile    = "uscounties.csv"
)

type state struct {
	code string
	name string
	fips int
}

var states = []state{
	{"AL", "Alabama", 1}, {"AZ", "Arizona", 4}, {"CA", "California", 6},
	{"GA", "Georgia", 13}, {"IL", "Illinois", 17}, {"KY", "Kentucky", 21},
	{"LA", "Louisiana", 22}, {"NY", "New York", 36}, {"OH", "Ohio", 39},
	{"TX", "Texas", 48}, {"VA", "Virginia", 51}, {"WA", "Washington", 53},
}

var countyNames = []string{
	"Adams", "Benton", "Clark", "Douglas", "Franklin", "Grant", "Hamilton",
	"Jackson", "Jefferson", "Lincoln", "Madison", "Marion", "Monroe",
	"Montgomery", "Polk", "Union", "Warren", "Washington", "Wayne", "Wilson",
}

type county struct {
	name  string
	state state
	at    domain.Coordinate

	employment   float64
	unemployment float64
	snap         int
	cost         int
}

type options struct {
	out      string
	counties int
	months   int
	end      time.Time
	seed     uint64
}

func main() {
	out := flag.String("out", "data", "directory to write the generated files into")
	counties := flag.Int("counties", 25, "number of counties")
	months := flag.Int("months", 24, "number of monthly unemployment observations per county")
	end := flag.String("end", "2025-03", "last unemployment month (YYYY-MM)")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	endMonth, err := time.Parse("2006-01", *end)
	if err != nil {
		log.Fatalf("invalid -end %q: %v", *end, err)
	}
	if err := run(options{out: *out, counties: *counties, months: *months, end: endMonth, seed: *seed}); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	if opts.counties <= 0 || opts.months <= 0 {
		return fmt.Errorf("counties and months must be positive")
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	cs := makeCounties(rng, opts.counties)

	writers := []struct {
		file string
		rows func() [][]string
	}{
		{employmentFile, func() [][]string { return employmentRows(rng, cs, opts.end.Year()) }},
		{unemploymentFile, func() [][]string { return unemploymentRows(rng, cs, opts.end, opts.months) }},
		{snapFile, func() [][]string { return snapRows(cs) }},
		{costFile, func() [][]string { return costRows(cs) }},
		{gazetteerFile, func() [][]string { return gazetteerRows(cs) }},
	}
	for _, w := range writers {
		path := filepath.Join(opts.out, w.file)
		rows := w.rows()
		if err := writeCSV(path, rows); err != nil {
			return fmt.Errorf("write %s: %w", w.file, err)
		}
		log.Printf("%s: %d rows", path, len(rows)-1)
	}
	return nil
}

// makeCounties spreads n counties over the states. Names repeat across states
// the way real county names do.
func makeCounties(rng *rand.Rand, n int) []county {
	out := make([]county, n)
	for i := range out {
		st := states[i%len(states)]
		name := countyNames[(i/len(states))%len(countyNames)]
		if round := i / (len(states) * len(countyNames)); round > 0 {
			name += " " + strconv.Itoa(round+1)
		}
		center, _ := domain.StateCentroid(st.code)
		out[i] = county{
			name:  name,
			state: st,
			at: domain.Coordinate{
				Lat: center.Lat + rng.NormFloat64()*0.8,
				Lon: center.Lon + rng.NormFloat64()*0.8,
			},
			employment:   200 + rng.Float64()*4800,
			unemployment: 2 + rng.Float64()*6,
			snap:         500 + rng.IntN(20000),
			cost:         45000 + rng.IntN(40000),
		}
	}
	return out
}

func employmentRows(rng *rand.Rand, cs []county, year int) [][]string {
	rows := [][]string{{"County", "State", "Year", "January Employment", "February Employment", "March Employment"}}
	for _, c := range cs {
		row := []string{c.name + " County", c.state.code, strconv.Itoa(year)}
		for range 3 {
			v := c.employment * (1 + rng.NormFloat64()*0.02)
			row = append(row, thousands(int(v)))
		}
		rows = append(rows, row)
	}
	return rows
}

func unemploymentRows(rng *rand.Rand, cs []county, end time.Time, months int) [][]string {
	rows := [][]string{{"County", "State FIPS Code", "Period", "Unemployment Rate (%)"}}
	for _, c := range cs {
		rate := c.unemployment
		for m := months - 1; m >= 0; m-- {
			period := end.AddDate(0, -m, 0)
			rate = max(0.5, rate+rng.NormFloat64()*0.2)
			rows = append(rows, []string{
				c.name + " County, " + c.state.code,
				strconv.Itoa(c.state.fips),
				period.Format("06-Jan"),
				strconv.FormatFloat(rate, 'f', 1, 64),
			})
		}
	}
	return rows
}

func snapRows(cs []county) [][]string {
	rows := [][]string{{"county_name", "state_name", "snap_households"}}
	for _, c := range cs {
		rows = append(rows, []string{c.name + " County", c.state.name, thousands(c.snap)})
	}
	return rows
}

func costRows(cs []county) [][]string {
	rows := [][]string{{"county", "state", "total_cost"}}
	for _, c := range cs {
		rows = append(rows, []string{c.name + " County", c.state.code, "$" + thousands(c.cost) + ".00"})
	}
	return rows
}

func gazetteerRows(cs []county) [][]string {
	rows := [][]string{{"county", "county_ascii", "county_full", "state_id", "lat", "lng"}}
	for _, c := range cs {
		rows = append(rows, []string{
			c.name,
			c.name,
			c.name + " County",
			c.state.code,
			strconv.FormatFloat(c.at.Lat, 'f', 4, 64),
			strconv.FormatFloat(c.at.Lon, 'f', 4, 64),
		})
	}
	return rows
}

// thousands formats n with comma separators, as the source exports do.
func thousands(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + thousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
