package nfl

// teams maps full team names to their ESPN abbreviations
var teams = map[string]string{
	"Arizona Cardinals":     "ARI",
	"Atlanta Falcons":       "ATL",
	"Baltimore Ravens":      "BAL",
	"Buffalo Bills":         "BUF",
	"Carolina Panthers":     "CAR",
	"Chicago Bears":         "CHI",
	"Cincinnati Bengals":    "CIN",
	"Cleveland Browns":      "CLE",
	"Dallas Cowboys":        "DAL",
	"Denver Broncos":        "DEN",
	"Detroit Lions":         "DET",
	"Green Bay Packers":     "GB",
	"Houston Texans":        "HOU",
	"Indianapolis Colts":    "IND",
	"Jacksonville Jaguars":  "JAX",
	"Kansas City Chiefs":    "KC",
	"Las Vegas Raiders":     "LV",
	"Los Angeles Chargers":  "LAC",
	"Los Angeles Rams":      "LAR",
	"Miami Dolphins":        "MIA",
	"Minnesota Vikings":     "MIN",
	"New England Patriots":  "NE",
	"New Orleans Saints":    "NO",
	"New York Giants":       "NYG",
	"New York Jets":         "NYJ",
	"Philadelphia Eagles":   "PHI",
	"Pittsburgh Steelers":   "PIT",
	"San Francisco 49ers":   "SF",
	"Seattle Seahawks":      "SEA",
	"Tampa Bay Buccaneers":  "TB",
	"Tennessee Titans":      "TEN",
	"Washington Commanders": "WSH",
}

// abbreviationToName is the reverse mapping, built at init
var abbreviationToName map[string]string

func init() {
	abbreviationToName = make(map[string]string, len(teams))
	for name, abbr := range teams {
		abbreviationToName[abbr] = name
	}
}

// GetTeamAbbreviation returns the abbreviation for a full team name.
// Returns the input unchanged if not found.
func GetTeamAbbreviation(teamName string) string {
	if abbr, ok := teams[teamName]; ok {
		return abbr
	}
	return teamName
}

// GetTeamName returns the full team name for an abbreviation.
// Returns the input unchanged if not found.
func GetTeamName(abbreviation string) string {
	if name, ok := abbreviationToName[abbreviation]; ok {
		return name
	}
	return abbreviation
}
