package vota

import (
	"context"
	"net/http"
)

var (
	ballotList = Endpoint{
		Operation:  "ballots.list",
		Method:     http.MethodGet,
		Path:       "/v1/ballots/{electionId}",
		DateFields: BallotDateFields,
	}
	ballotAdd = Endpoint{
		Operation: "ballots.add",
		Method:    http.MethodPost,
		Path:      "/v1/ballots",
	}
	ballotDelete = Endpoint{
		Operation: "ballots.delete",
		Method:    http.MethodPost,
		Path:      "/v1/ballots/deleteRequests",
	}
)

// BallotClient wraps the /v1/ballots resource
type BallotClient struct {
	gateway *Gateway
}

func NewBallotClient(gateway *Gateway) *BallotClient {
	return &BallotClient{gateway: gateway}
}

// List returns the ballots counted for electionID, deleted ones included
func (c *BallotClient) List(ctx context.Context, electionID int64) ([]BallotWithVotes, error) {
	var out []BallotWithVotes
	if err := c.gateway.Do(ctx, Call{Endpoint: ballotList, Params: []any{electionID}, Out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BallotClient) Add(ctx context.Context, ballot BallotWithVotes) error {
	return c.gateway.Do(ctx, Call{Endpoint: ballotAdd, Body: ballot})
}

// Delete files a delete request, ballots are kept with IsDeleted set
func (c *BallotClient) Delete(ctx context.Context, req DeleteBallotRequest) error {
	return c.gateway.Do(ctx, Call{Endpoint: ballotDelete, Body: req})
}
