package resultmap

import (
	"encoding/csv"
	"strings"

	"github.com/gocarina/gocsv"
	goerrors "github.com/goliatone/go-errors"
	vota "github.com/michivo/go-vota"
)

// VoterRow is one line of a result's voter list.
type VoterRow struct {
	BallotIdentifier string `csv:"BallotIdentifier"`
	BallotStation    string `csv:"BallotStation"`
	CountingUser     string `csv:"CountingUser"`
	IsValid          bool   `csv:"IsValid"`
}

// VoteRow is one ranked preference of a ballot.
type VoteRow struct {
	BallotIdentifier string `csv:"BallotIdentifier"`
	CandidateName    string `csv:"Candidate"`
	Rank             int    `csv:"Rank"`
}

// Option customizes CSV decoding.
type Option func(*decodeOptions)

type decodeOptions struct {
	comma      rune
	lazyQuotes bool
	trimSpace  bool
}

// WithDelimiter sets the field separator, ',' by default.
func WithDelimiter(comma rune) Option {
	return func(opts *decodeOptions) {
		if opts == nil || comma == 0 {
			return
		}
		opts.comma = comma
	}
}

// WithLazyQuotes allows quotes inside unquoted fields.
func WithLazyQuotes() Option {
	return func(opts *decodeOptions) {
		if opts == nil {
			return
		}
		opts.lazyQuotes = true
	}
}

func defaultDecodeOptions() decodeOptions {
	return decodeOptions{
		comma:     ',',
		trimSpace: true,
	}
}

// DecodeVoters parses the voter list of result.
func DecodeVoters(result vota.VotingResult, opts ...Option) ([]VoterRow, error) {
	var rows []VoterRow
	if err := Decode(result.VoterListCSV, &rows, opts...); err != nil {
		return nil, err
	}
	return rows, nil
}

// DecodeVotes parses the per ballot votes of result.
func DecodeVotes(result vota.VotingResult, opts ...Option) ([]VoteRow, error) {
	var rows []VoteRow
	if err := Decode(result.VotesCSV, &rows, opts...); err != nil {
		return nil, err
	}
	return rows, nil
}

// Decode parses CSV text with a header line into out, a pointer to a slice
// of structs tagged with `csv`. Empty text leaves out untouched.
func Decode(text string, out any, opts ...Option) error {
	options := defaultDecodeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = options.comma
	r.LazyQuotes = options.lazyQuotes
	r.TrimLeadingSpace = options.trimSpace

	if err := gocsv.UnmarshalCSV(r, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode result csv").
			WithTextCode(vota.TextCodeDataParseError)
	}
	return nil
}
