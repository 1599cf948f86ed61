package bundle

// Mode selects between the development loop and a shippable production build.
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

// DefaultMode is used when no mode is supplied.
const DefaultMode = Development

// ParseMode classifies a raw mode argument. Only the exact string "production"
// selects Production; everything else, including the empty string, falls back
// to DefaultMode.
func ParseMode(s string) Mode {
	if s == string(Production) {
		return Production
	}
	return DefaultMode
}

// IsDev reports whether m builds for the development loop.
func (m Mode) IsDev() bool {
	return m != Production
}

func (m Mode) String() string {
	return string(m)
}
