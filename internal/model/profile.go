package model

import "strings"

// DirectoryMatch is a single hit from the directory search endpoint.
// It is transient: the crawl only uses it to pick the email for the
// detail lookup and to build the search audit row.
type DirectoryMatch struct {
	// ID is the directory-assigned identifier (independent of the crawl id).
	ID string `json:"id"`

	// FullName is the person's display name as the directory knows it.
	FullName string `json:"full_name"`

	// Email is the institutional email address, used as the detail lookup key.
	Email string `json:"email"`

	// HasPhone reports whether a phone number is on file.
	HasPhone bool `json:"has_phone"`

	// Type is the account category (student, staff, ...).
	Type string `json:"type"`

	// Description is a short free-form annotation shown in search results.
	Description string `json:"description"`
}

// String renders the match the way the search audit log stores it.
func (m DirectoryMatch) String() string {
	return m.FullName + " <" + m.Email + ">"
}

// JoinMatches renders a match list into the single audit-log string
// written for every directory search.
func JoinMatches(matches []DirectoryMatch) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, ", ")
}

// NameParts is the structured split of a full name.
type NameParts struct {
	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
}

// Chief is the optional manager sub-record embedded in a staff position.
type Chief struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	BirthDate   *string `json:"birth_date,omitempty"`
	Email       string  `json:"email"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Description string  `json:"description"`
	HasPhone    bool    `json:"has_phone"`
	Type        string  `json:"type"`
}

// StaffPosition is one employment record attached to an identity.
type StaffPosition struct {
	UnitName     string `json:"unit_name"`
	UnitID       int    `json:"unit_id"`
	IsMain       bool   `json:"is_main"`
	PositionName string `json:"position_name"`
	Chief        *Chief `json:"chief,omitempty"`
}

// Navigation is the optional indoor-location sub-record of an address.
type Navigation struct {
	Room  int `json:"room"`
	Floor int `json:"floor"`
}

// StaffAddress is one office address record attached to an identity.
type StaffAddress struct {
	Label             string      `json:"label"`
	RoomCode          string      `json:"room_code"`
	IsMain            bool        `json:"is_main"`
	PresenceType      *string     `json:"presence_type,omitempty"`
	PresenceTime      *string     `json:"presence_time,omitempty"`
	PhoneInternalExt  *string     `json:"phone_internal_ext,omitempty"`
	PhoneInternalFull *string     `json:"phone_internal_full,omitempty"`
	PhoneWork         *string     `json:"phone_work,omitempty"`
	Navigation        *Navigation `json:"navigation,omitempty"`
	Campus            string      `json:"campus"`
}

// Education is one study record attached to an identity.
type Education struct {
	ID                 string `json:"id"`
	UniversityTitle    string `json:"university_title"`
	StartYear          string `json:"start_year"`
	DegreeLevel        string `json:"degree_level"`
	ProgramID          string `json:"program_id"`
	ProgramTitle       string `json:"program_title"`
	FacultyTitle       string `json:"faculty_title"`
	Campus             string `json:"campus"`
	GroupID            string `json:"group_id"`
	GroupTitle         string `json:"group_title"`
	SmartPlanProgramID string `json:"smart_plan_program_id"`
	Degree             string `json:"degree"`
}

// IdentityProfile is the canonical structured record returned by the
// directory detail endpoint. The three sub-record slices keep the order
// the API returned them in.
type IdentityProfile struct {
	// ID is the directory-assigned identifier (lk id in the store).
	ID string `json:"id"`

	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	HasPhone    bool      `json:"has_phone"`
	Type        string    `json:"type"`
	Names       NameParts `json:"names"`

	IsTimetableAvailable    bool `json:"is_timetable_available"`
	IsSubordinatesAvailable bool `json:"is_subordinates_available"`

	StaffPositions []StaffPosition `json:"staff_positions,omitempty"`
	StaffAddresses []StaffAddress  `json:"staff_address,omitempty"`
	Education      []Education     `json:"education,omitempty"`

	BirthDate  *string `json:"birth_date,omitempty"`
	SourceID   *string `json:"sourceId,omitempty"`
	InternalID *string `json:"_id,omitempty"`
	Campus     *string `json:"campus,omitempty"`
}

// Account is the payload of the authenticated /v3/dump/me endpoint.
// It describes the crawling account itself and backs the whoami command.
type Account struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	BirthDate   string    `json:"birth_date"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url"`
	Description string    `json:"description"`
	HasPhone    bool      `json:"has_phone"`
	Type        string    `json:"type"`
	Roles       []string  `json:"lk_roles"`
	Names       NameParts `json:"names"`
	Campus      string    `json:"campus"`
}
