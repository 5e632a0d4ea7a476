package world

// Climate is a Koppen-Geiger style climate classification, plus the two
// classes the Koppen scheme itself doesn't name: Ocean and Glacier.
type Climate uint8

const (
	ClimateUndefined Climate = iota
	ClimateOcean
	ClimateGlacier

	// Group A: tropical.
	ClimateAf // tropical rainforest
	ClimateAm // tropical monsoon
	ClimateAw // tropical savanna

	// Group B: arid.
	ClimateBWh // hot desert
	ClimateBWk // cold desert
	ClimateBSh // hot semi-arid
	ClimateBSk // cold semi-arid

	// Group C: temperate.
	ClimateCsa
	ClimateCsb
	ClimateCsc
	ClimateCwa
	ClimateCwb
	ClimateCwc
	ClimateCfa
	ClimateCfb
	ClimateCfc

	// Group D: continental.
	ClimateDsa
	ClimateDsb
	ClimateDsc
	ClimateDwa
	ClimateDwb
	ClimateDwc
	ClimateDfa
	ClimateDfb
	ClimateDfc
	ClimateDfd
)

var climateNames = map[Climate]string{
	ClimateUndefined: "Undefined",
	ClimateOcean:     "Ocean",
	ClimateGlacier:   "Glacier",
	ClimateAf:        "Af", ClimateAm: "Am", ClimateAw: "Aw",
	ClimateBWh: "BWh", ClimateBWk: "BWk", ClimateBSh: "BSh", ClimateBSk: "BSk",
	ClimateCsa: "Csa", ClimateCsb: "Csb", ClimateCsc: "Csc",
	ClimateCwa: "Cwa", ClimateCwb: "Cwb", ClimateCwc: "Cwc",
	ClimateCfa: "Cfa", ClimateCfb: "Cfb", ClimateCfc: "Cfc",
	ClimateDsa: "Dsa", ClimateDsb: "Dsb", ClimateDsc: "Dsc",
	ClimateDwa: "Dwa", ClimateDwb: "Dwb", ClimateDwc: "Dwc",
	ClimateDfa: "Dfa", ClimateDfb: "Dfb", ClimateDfc: "Dfc", ClimateDfd: "Dfd",
}

func (c Climate) String() string {
	if s, ok := climateNames[c]; ok {
		return s
	}
	return "Undefined"
}
