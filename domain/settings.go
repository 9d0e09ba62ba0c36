package domain

// Settings is the single persisted local record: read at startup,
// written on explicit save. Changing any field tears down the live
// session and creates a new one.
type Settings struct {
	DisplayName string
	Endpoint    string
	DemoMode    bool
}
