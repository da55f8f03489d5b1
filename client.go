package vota

import "context"

// Client bundles the resource clients and the session service over one
// Gateway and SessionStore.
type Client struct {
	Gateway   *Gateway
	Store     *SessionStore
	Users     *UserClient
	Elections *ElectionClient
	Ballots   *BallotClient
	Sessions  *SessionService
}

// ClientConfig collects the collaborators of NewClient
type ClientConfig struct {
	BaseURL        string
	Credentials    CredentialStore
	Locale         string
	Logger         Logger
	ActivitySink   ActivitySink
	GatewayOptions []GatewayOption
}

// NewClient wires a SessionStore, Gateway and every resource client.
// Call Initialize before the first request.
func NewClient(cfg ClientConfig) (*Client, error) {
	logger := normalizeLogger(cfg.Logger)
	locale := cfg.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	messages := NewMessages(locale)

	store := NewSessionStore(cfg.Credentials, WithSessionLogger(logger))

	opts := append([]GatewayOption{
		WithGatewayLogger(logger),
		WithGatewayMessages(messages),
	}, cfg.GatewayOptions...)

	gateway, err := NewGateway(cfg.BaseURL, store, opts...)
	if err != nil {
		return nil, err
	}

	users := NewUserClient(gateway)

	return &Client{
		Gateway:   gateway,
		Store:     store,
		Users:     users,
		Elections: NewElectionClient(gateway),
		Ballots:   NewBallotClient(gateway),
		Sessions: NewSessionService(users, store,
			WithServiceLogger(logger),
			WithServiceMessages(messages),
			WithServiceActivitySink(cfg.ActivitySink),
		),
	}, nil
}

// Initialize restores the persisted session
func (c *Client) Initialize(ctx context.Context) Session {
	return c.Store.Initialize(ctx)
}

// Context returns ctx carrying the client's SessionStore
func (c *Client) Context(ctx context.Context) context.Context {
	return WithSessionContext(ctx, c.Store)
}
