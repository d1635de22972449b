package domain

// MonthlyFilter narrows a monthly listing. Zero fields are unset. Region and
// Parameter match case-insensitively.
type MonthlyFilter struct {
	Region    string
	Parameter string
	Start     int
	End       int
	Month     int
}

// MonthlyRecord is one stored point as served to readers.
type MonthlyRecord struct {
	Region    string   `json:"region"`
	Parameter string   `json:"parameter"`
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	MonthName string   `json:"month_name"`
	Value     *float64 `json:"value"`
}

// MonthPack maps every month name to its value, nil where nothing is stored.
type MonthPack map[string]*float64

// NewMonthPack returns a pack with all twelve months present and empty.
func NewMonthPack() MonthPack {
	p := make(MonthPack, MonthsPerYear)
	for _, name := range MonthNames {
		p[name] = nil
	}
	return p
}

// Set stores v under the name of month (1-12). Out-of-range months are ignored.
func (p MonthPack) Set(month int, v *float64) {
	if month < 1 || month > MonthsPerYear {
		return
	}
	p[MonthNames[month-1]] = v
}

// YearlyPack is one year of a series keyed by month name.
type YearlyPack struct {
	Region    string    `json:"region"`
	Parameter string    `json:"parameter"`
	Year      int       `json:"year"`
	Months    MonthPack `json:"months"`
}

// AllYearsPack is a whole series keyed by year then month name.
type AllYearsPack struct {
	Region    string            `json:"region"`
	Parameter string            `json:"parameter"`
	Data      map[int]MonthPack `json:"data"`
}
