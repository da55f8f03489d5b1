package vota

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	userSignIn = Endpoint{
		Operation: "users.signIn",
		Method:    http.MethodPost,
		Path:      "/v1/users/signInRequests",
		Anonymous: true,
	}
	userPasswordReset = Endpoint{
		Operation: "users.resetPassword",
		Method:    http.MethodPost,
		Path:      "/v1/users/passwordResetRequests",
		Anonymous: true,
	}
	userList = Endpoint{
		Operation: "users.list",
		Method:    http.MethodGet,
		Path:      "/v1/users/",
	}
	userCreate = Endpoint{
		Operation: "users.create",
		Method:    http.MethodPost,
		Path:      "/v1/users",
	}
	userUpdate = Endpoint{
		Operation: "users.update",
		Method:    http.MethodPut,
		Path:      "/v1/users/{id}",
	}
	userDelete = Endpoint{
		Operation: "users.delete",
		Method:    http.MethodDelete,
		Path:      "/v1/users/{id}",
	}
	userSetPassword = Endpoint{
		Operation: "users.setPassword",
		Method:    http.MethodPost,
		Path:      "/v1/users/{id}/password",
	}
	userChallengeResponse = Endpoint{
		Operation: "users.respondToChallenge",
		Method:    http.MethodPost,
		Path:      "/v1/users/challengeResponses",
	}
)

// UserClient wraps the /v1/users resource
type UserClient struct {
	gateway *Gateway
}

func NewUserClient(gateway *Gateway) *UserClient {
	return &UserClient{gateway: gateway}
}

// SignIn exchanges credentials for a session token
func (c *UserClient) SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error) {
	out := &SignInResponse{}
	if err := c.gateway.Do(ctx, Call{Endpoint: userSignIn, Body: req, Out: out}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return nil, malformedTokenError(errors.New("sign in response carried no token"))
	}
	return out, nil
}

func (c *UserClient) ResetPassword(ctx context.Context, username string) error {
	return c.gateway.Do(ctx, Call{
		Endpoint: userPasswordReset,
		Body:     PasswordResetRequest{Username: username},
	})
}

func (c *UserClient) List(ctx context.Context) ([]UserRecord, error) {
	var out []UserRecord
	if err := c.gateway.Do(ctx, Call{Endpoint: userList, Out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *UserClient) Create(ctx context.Context, req CreateUserRequest) error {
	return c.gateway.Do(ctx, Call{Endpoint: userCreate, Body: req})
}

func (c *UserClient) Update(ctx context.Context, user UserRecord) error {
	return c.gateway.Do(ctx, Call{Endpoint: userUpdate, Params: []any{user.ID}, Body: user})
}

func (c *UserClient) Delete(ctx context.Context, id int64) error {
	return c.gateway.Do(ctx, Call{Endpoint: userDelete, Params: []any{id}})
}

// SetPassword replaces the password of user id
func (c *UserClient) SetPassword(ctx context.Context, id int64, password string) error {
	return c.gateway.Do(ctx, Call{
		Endpoint: userSetPassword,
		Params:   []any{id},
		Body:     SetPasswordRequest{Password: password},
	})
}

// RespondToChallenge sets the initial password from a mailed challenge
func (c *UserClient) RespondToChallenge(ctx context.Context, challenge, password string) error {
	return c.gateway.Do(ctx, Call{
		Endpoint: userChallengeResponse,
		Body:     ChallengeResponse{Challenge: challenge, Password: password},
	})
}
