package vota

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// ElectionState is the lifecycle stage of an election
type ElectionState int

const (
	ElectionStateNone ElectionState = iota
	ElectionStateCreating
	ElectionStateCounting
	ElectionStateCountingComplete
	ElectionStateDone
	ElectionStateResultsOfficial
)

func (s ElectionState) String() string {
	switch s {
	case ElectionStateCreating:
		return "creating"
	case ElectionStateCounting:
		return "counting"
	case ElectionStateCountingComplete:
		return "counting_complete"
	case ElectionStateDone:
		return "done"
	case ElectionStateResultsOfficial:
		return "results_official"
	default:
		return "none"
	}
}

// ElectionType selects the counting method
type ElectionType int

const (
	ElectionTypeNone ElectionType = iota
	ElectionTypeOrderedSingleTransferableVote
	ElectionTypeUnorderedSingleTransferableVote
)

func (t ElectionType) String() string {
	switch t {
	case ElectionTypeOrderedSingleTransferableVote:
		return "ordered_stv"
	case ElectionTypeUnorderedSingleTransferableVote:
		return "unordered_stv"
	default:
		return "none"
	}
}

type Gender int

const (
	GenderNone Gender = iota
	GenderFemale
	GenderMale
	GenderOther
)

func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "female"
	case GenderMale:
		return "male"
	case GenderOther:
		return "other"
	default:
		return "none"
	}
}

// Election is the summary record of an election
type Election struct {
	ID                       int64         `json:"id"`
	Title                    string        `json:"title"`
	Description              *string       `json:"description,omitempty"`
	CreateUserID             int64         `json:"createUserId"`
	DateCreated              time.Time     `json:"dateCreated"`
	EnforceGenderParity      bool          `json:"enforceGenderParity"`
	ElectionType             ElectionType  `json:"electionType"`
	ElectionState            ElectionState `json:"electionState"`
	AlreadyElectedMale       int           `json:"alreadyElectedMale"`
	AlreadyElectedFemale     int           `json:"alreadyElectedFemale"`
	NumberOfPositionsToElect int           `json:"numberOfPositionsToElect"`
}

// Validate checks the fields required to create or update an election
func (e Election) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Title, validation.Required, validation.Length(1, 256)),
		validation.Field(&e.ElectionType, validation.In(
			ElectionTypeNone,
			ElectionTypeOrderedSingleTransferableVote,
			ElectionTypeUnorderedSingleTransferableVote,
		)),
		validation.Field(&e.NumberOfPositionsToElect, validation.Min(0)),
		validation.Field(&e.AlreadyElectedMale, validation.Min(0)),
		validation.Field(&e.AlreadyElectedFemale, validation.Min(0)),
	)
}

// ElectionWithCandidates is an election with its ballot list
type ElectionWithCandidates struct {
	Election
	Candidates []Candidate `json:"candidates"`
}

func (e ElectionWithCandidates) Validate() error {
	if err := e.Election.Validate(); err != nil {
		return err
	}
	for i, c := range e.Candidates {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candidates[%d]: %w", i, err)
		}
	}
	return nil
}

type Candidate struct {
	ID          int64   `json:"id"`
	BallotOrder int     `json:"ballotOrder"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Gender      Gender  `json:"gender"`
	ElectionID  int64   `json:"electionId"`
}

func (c Candidate) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Gender, validation.In(GenderNone, GenderFemale, GenderMale, GenderOther)),
	)
}

// BallotInfo is the metadata of a counted ballot
type BallotInfo struct {
	ID               int64      `json:"id"`
	CountingUserID   int64      `json:"countingUserId"`
	CountingUserName string     `json:"countingUserName"`
	AdditionalPeople string     `json:"additionalPeople"`
	DateCreated      time.Time  `json:"dateCreated"`
	ElectionID       int64      `json:"electionId"`
	BallotStation    string     `json:"ballotStation"`
	BallotIdentifier string     `json:"ballotIdentifier"`
	IsValid          bool       `json:"isValid"`
	Notes            string     `json:"notes"`
	IsDeleted        bool       `json:"isDeleted"`
	DeleteReason     *string    `json:"deleteReason,omitempty"`
	DeleteUserName   *string    `json:"deleteUserName,omitempty"`
	DeleteUserID     *int64     `json:"deleteUserId,omitempty"`
	DateDeleted      *time.Time `json:"dateDeleted,omitempty"`
	CanDelete        bool       `json:"canDelete"`
}

type BallotItem struct {
	ID            int64  `json:"id"`
	BallotID      int64  `json:"ballotId"`
	CandidateID   int64  `json:"candidateId"`
	CandidateName string `json:"candidateName"`
	BallotOrder   int    `json:"ballotOrder"`
}

type BallotWithVotes struct {
	BallotInfo
	Votes []BallotItem `json:"votes"`
}

func (b BallotWithVotes) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ElectionID, validation.Required),
	)
}

// DeleteBallotRequest marks a ballot as deleted
type DeleteBallotRequest struct {
	BallotID     int64  `json:"ballotId"`
	ElectionID   int64  `json:"electionId"`
	DeleteReason string `json:"deleteReason"`
}

func (r DeleteBallotRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BallotID, validation.Required),
		validation.Field(&r.ElectionID, validation.Required),
	)
}

type Region struct {
	ID         int64  `json:"id"`
	RegionName string `json:"regionName"`
}

// UserRecord is a user account as managed by admins
type UserRecord struct {
	ID       int64    `json:"id"`
	Role     UserRole `json:"role"`
	Username string   `json:"username"`
	Email    *string  `json:"email,omitempty"`
	FullName string   `json:"fullName"`
	Regions  []Region `json:"regions"`
}

func (u UserRecord) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Username, validation.Required, validation.Length(1, 128)),
		validation.Field(&u.Email, is.Email),
		validation.Field(&u.Role, validation.In(RoleAdmin, RoleStandard)),
	)
}

type UserWithPassword struct {
	UserRecord
	Password string `json:"password"`
}

// CreateUserRequest creates an account; with SendPasswordLink the server
// mails a challenge instead of using Password.
type CreateUserRequest struct {
	UserWithPassword
	SendPasswordLink bool `json:"sendPasswordLink"`
}

func (r CreateUserRequest) Validate() error {
	if err := r.UserRecord.Validate(); err != nil {
		return err
	}
	if r.SendPasswordLink {
		return nil
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type SignInResponse struct {
	Token string `json:"token"`
}

type PasswordResetRequest struct {
	Username string `json:"username"`
}

func (r PasswordResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
	)
}

type SetPasswordRequest struct {
	Password string `json:"password"`
}

func (r SetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

// ChallengeResponse completes the initial password flow
type ChallengeResponse struct {
	Challenge string `json:"challenge"`
	Password  string `json:"password"`
}

func (r ChallengeResponse) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Challenge, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type CountRequest struct {
	IsTestRun bool `json:"isTestRun"`
}

// VotingResult is one counting run of an election
type VotingResult struct {
	ID                    int64      `json:"id"`
	ElectionID            int64      `json:"electionId"`
	UserID                int64      `json:"userId"`
	IsTestRun             bool       `json:"isTestRun"`
	DateCreatedUTC        time.Time  `json:"dateCreatedUtc"`
	OverrideDateUTC       *time.Time `json:"overrideDateUtc,omitempty"`
	Success               bool       `json:"success"`
	ErrorLog              string     `json:"errorLog"`
	DetailedLog           string     `json:"detailedLog"`
	Protocol              *Protocol  `json:"protocol,omitempty"`
	ProtocolFormatVersion int        `json:"protocolFormatVersion"`
	VoterListCSV          string     `json:"voterListCsv"`
	VotesCSV              string     `json:"votesCsv"`
	StatsData             string     `json:"statsData"`
	ElectionName          string     `json:"electionName"`
	Username              string     `json:"username"`
}

// Protocol is the counting protocol tree
type Protocol struct {
	Title    string            `json:"Title"`
	Messages []ProtocolMessage `json:"Messages"`
	Result   []string          `json:"Result"`
}

// ProtocolMessage is either a line of text or a nested section.
type ProtocolMessage struct {
	Text    string
	Section *Protocol
}

// IsSection reports whether the message holds a nested protocol
func (m ProtocolMessage) IsSection() bool {
	return m.Section != nil
}

func (m *ProtocolMessage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		section := &Protocol{}
		if err := json.Unmarshal(data, section); err != nil {
			return err
		}
		m.Text, m.Section = "", section
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("protocol message must be a string or an object: %w", err)
	}
	m.Text, m.Section = text, nil
	return nil
}

func (m ProtocolMessage) MarshalJSON() ([]byte, error) {
	if m.Section != nil {
		return json.Marshal(m.Section)
	}
	return json.Marshal(m.Text)
}
