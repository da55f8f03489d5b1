package vota

import (
	"context"
	"net/http"
)

var (
	electionList = Endpoint{
		Operation:  "elections.list",
		Method:     http.MethodGet,
		Path:       "/v1/elections",
		DateFields: ElectionDateFields,
	}
	electionCreate = Endpoint{
		Operation: "elections.create",
		Method:    http.MethodPost,
		Path:      "/v1/elections",
	}
	electionGet = Endpoint{
		Operation:  "elections.get",
		Method:     http.MethodGet,
		Path:       "/v1/elections/{id}",
		DateFields: ElectionDateFields,
	}
	electionUpdate = Endpoint{
		Operation: "elections.update",
		Method:    http.MethodPut,
		Path:      "/v1/elections/{id}",
	}
	electionDelete = Endpoint{
		Operation: "elections.delete",
		Method:    http.MethodDelete,
		Path:      "/v1/elections/{id}",
	}
	electionResults = Endpoint{
		Operation:  "elections.results",
		Method:     http.MethodGet,
		Path:       "/v1/elections/{id}/results",
		DateFields: ResultDateFields,
	}
	electionCount = Endpoint{
		Operation:  "elections.requestCount",
		Method:     http.MethodPost,
		Path:       "/v1/elections/{id}/countRequests",
		DateFields: ResultDateFields,
	}
)

// ElectionClient wraps the /v1/elections resource
type ElectionClient struct {
	gateway *Gateway
}

func NewElectionClient(gateway *Gateway) *ElectionClient {
	return &ElectionClient{gateway: gateway}
}

func (c *ElectionClient) List(ctx context.Context) ([]Election, error) {
	var out []Election
	if err := c.gateway.Do(ctx, Call{Endpoint: electionList, Out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ElectionClient) Create(ctx context.Context, election ElectionWithCandidates) error {
	return c.gateway.Do(ctx, Call{Endpoint: electionCreate, Body: election})
}

// Get returns the election with its candidates
func (c *ElectionClient) Get(ctx context.Context, id int64) (*ElectionWithCandidates, error) {
	out := &ElectionWithCandidates{}
	if err := c.gateway.Do(ctx, Call{Endpoint: electionGet, Params: []any{id}, Out: out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ElectionClient) Update(ctx context.Context, election ElectionWithCandidates) error {
	return c.gateway.Do(ctx, Call{Endpoint: electionUpdate, Params: []any{election.ID}, Body: election})
}

func (c *ElectionClient) Delete(ctx context.Context, id int64) error {
	return c.gateway.Do(ctx, Call{Endpoint: electionDelete, Params: []any{id}})
}

// Results lists every counting run of election id
func (c *ElectionClient) Results(ctx context.Context, id int64) ([]VotingResult, error) {
	var out []VotingResult
	if err := c.gateway.Do(ctx, Call{Endpoint: electionResults, Params: []any{id}, Out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestCount starts a counting run and returns its result
func (c *ElectionClient) RequestCount(ctx context.Context, id int64, isTestRun bool) (*VotingResult, error) {
	out := &VotingResult{}
	err := c.gateway.Do(ctx, Call{
		Endpoint: electionCount,
		Params:   []any{id},
		Body:     CountRequest{IsTestRun: isTestRun},
		Out:      out,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
