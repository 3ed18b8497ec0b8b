package model

const EmptyTitle string = ""

type Movie struct {
	ID            int64
	Title         string
	Overview      string
	ReleaseDate   string
	VoteAverage   float64
	VoteCount     int
	Popularity    float64
	PosterPath    string
	BackdropPath  string
	ContentRating string

	Genres   []string
	Keywords []string
}

type CastMember struct {
	PersonID  int64
	Name      string
	Character string
	Order     int
}

type MovieDetail struct {
	Movie     Movie
	Cast      []CastMember
	Directors []string
}

// Year extracts the release year from the YYYY-MM-DD release date.
// Returns 0 when the date is missing or malformed.
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, r := range m.ReleaseDate[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

const tmdbImageBase = "https://image.tmdb.org/t/p/"

func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return tmdbImageBase + "w500" + m.PosterPath
}

func (m Movie) BackdropURL() string {
	if m.BackdropPath == "" {
		return ""
	}
	return tmdbImageBase + "w1280" + m.BackdropPath
}
