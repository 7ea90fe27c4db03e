package domain

// Conference is the local conference record the importer reconciles into.
type Conference struct {
	ID             string
	Name           string
	Languages      []string
	SessionTypes   []SessionType
	FormatMappings []FormatMapping
	CFP            CFPCredentials
}

// PrimaryLanguage returns the first configured language, or fallback.
func (c *Conference) PrimaryLanguage(fallback string) string {
	if len(c.Languages) > 0 && c.Languages[0] != "" {
		return c.Languages[0]
	}
	return fallback
}

// SessionType is a configured kind of session (talk, workshop, ...).
type SessionType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FormatMapping maps an external format label to a local session type.
type FormatMapping struct {
	SessionTypeID  string `json:"sessionTypeId"`
	ExternalFormat string `json:"conferenceHallFormat"`
}

// CFPCredentials identify the conference on the submission platform.
// Both values are opaque to the engine.
type CFPCredentials struct {
	EventID string
	APIKey  string
}

// Complete reports whether both credentials are set.
func (c CFPCredentials) Complete() bool {
	return c.EventID != "" && c.APIKey != ""
}

// Track is a thematic track of a conference. Within a conference, tracks are
// unique by LabelKey(Name).
type Track struct {
	ID           string
	ConferenceID string
	Name         string
	Description  string
	Color        string
	Icon         string
}
