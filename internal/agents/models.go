package agents

// Agent is a purchasable roast-call configuration.
// Amounts are expressed in minor units (cents) using int64; a zero price is a
// free tier.
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Codename string `json:"codename"`

	PriceMinor int64  `json:"price_minor"`
	Currency   string `json:"currency"`

	// MaxDurationSeconds caps the external call; the dialer converts this to
	// the proxy's max_duration minutes.
	MaxDurationSeconds int `json:"max_duration_seconds"`

	RoastLevel  string `json:"roast_level"`
	Description string `json:"description"`

	// Recording marks whether a call recording is included in the tier.
	Recording bool `json:"recording"`
	Popular   bool `json:"popular,omitempty"`
}

// Free reports whether the tier costs nothing.
func (a Agent) Free() bool { return a.PriceMinor == 0 }

// MaxDurationMinutes is the proxy-facing duration unit.
func (a Agent) MaxDurationMinutes() float64 {
	return float64(a.MaxDurationSeconds) / 60.0
}
