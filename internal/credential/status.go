package credential

import "time"

// Status is a token-free snapshot of the manager for health checks and
// the credential status resource.
type Status struct {
	State     string     `json:"state"`
	Ready     bool       `json:"ready"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	ExpiresIn int        `json:"expires_in,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// RenewsAt is when the next renewal is due after the last successful
	// fetch. A failed renewal retries after Floor instead.
	RenewsAt *time.Time `json:"renews_at,omitempty"`

	// TimeToRenewal is RenewsAt relative to now, rounded to seconds
	TimeToRenewal string `json:"time_to_renewal,omitempty"`
}

// Ready reports whether a usable token is installed
func (s State) Ready() bool {
	return s == StateActive || s == StateRenewing
}

// Status returns the current lifecycle snapshot
func (m *Manager) Status() Status {
	state := m.State()
	st := Status{
		State: state.String(),
		Ready: state.Ready(),
	}

	cred := m.current.Load()
	if cred == nil {
		return st
	}

	fetched := cred.FetchedAt
	expires := cred.ExpiryInstant()
	renews := fetched.Add(m.RenewalDelay(cred.ExpiresIn))
	st.FetchedAt = &fetched
	st.ExpiresIn = cred.ExpiresIn
	st.ExpiresAt = &expires

	if state.Ready() {
		st.RenewsAt = &renews
		st.TimeToRenewal = max(renews.Sub(m.now()), 0).Round(time.Second).String()
	}
	return st
}
