package plex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"autocollect/internal/catalog"
	"autocollect/internal/config"
	"autocollect/internal/logging"
	"autocollect/internal/services"
	"autocollect/internal/textutil"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
)

// Prompter asks the operator to pick from a list or to sign in.
type Prompter interface {
	Choose(message string, labels []string) (int, error)
	Credentials() (string, string, error)
}

// Options carries the session settings.
type Options struct {
	URL         string
	Token       string
	Library     string
	ClientName  string
	Timeout     time.Duration
	MaxAttempts int
	StateDir    string
}

// OptionsFromConfig maps configuration onto connector options.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		URL:         cfg.Plex.URL,
		Token:       cfg.Plex.Token,
		Library:     cfg.Plex.Library,
		ClientName:  cfg.Plex.ClientName,
		Timeout:     time.Duration(cfg.Plex.TimeoutSeconds) * time.Second,
		MaxAttempts: cfg.Auth.MaxAttempts,
		StateDir:    cfg.Paths.StateDir,
	}
}

// Option customises Connector construction.
type Option func(*Connector)

// WithHTTPClient overrides the HTTP client used for Plex calls.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Connector) {
		c.client = client
	}
}

// WithAccountURL overrides the plex.tv base URL (used in tests).
func WithAccountURL(baseURL string) Option {
	return func(c *Connector) {
		c.accountURL = strings.TrimRight(baseURL, "/")
	}
}

// WithPrompter sets the terminal used for choices and sign-in.
func WithPrompter(prompter Prompter) Option {
	return func(c *Connector) {
		c.prompter = prompter
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

// Connector bootstraps a Plex session.
type Connector struct {
	opts       Options
	client     HTTPDoer
	accountURL string
	prompter   Prompter
	logger     *slog.Logger
	identity   *IdentityStore
	headers    *clientHeaders
}

// Session is a connected server, the chosen section and its items.
type Session struct {
	Server  *Server
	Section Section
	Items   []catalog.Item
}

// NewConnector builds a connector.
func NewConnector(opts Options, options ...Option) *Connector {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	c := &Connector{
		opts:       opts,
		accountURL: defaultAccountURL,
		identity:   NewIdentityStore(opts.StateDir),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: opts.Timeout}
	}
	c.logger = logging.NewComponentLogger(c.logger, "plex")
	return c
}

// Open connects, resolves the configured library and flattens it.
func (c *Connector) Open(ctx context.Context) (*Session, error) {
	server, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	section, err := c.ChooseSection(ctx, server, c.opts.Library)
	if err != nil {
		return nil, err
	}
	items, err := server.Flatten(ctx, section)
	if err != nil {
		return nil, err
	}
	c.logger.Info("library loaded",
		logging.String("server", server.URL()),
		logging.String("section", section.Title),
		logging.String("section_type", section.Type),
		logging.Int("items", len(items)),
	)
	return &Session{Server: server, Section: section, Items: items}, nil
}

// Connect connects directly when both URL and token are configured and
// otherwise signs in to plex.tv and lets the operator pick a server.
func (c *Connector) Connect(ctx context.Context) (*Server, error) {
	if strings.TrimSpace(c.opts.URL) != "" && strings.TrimSpace(c.opts.Token) != "" {
		return c.ConnectDirect(ctx, c.opts.URL, c.opts.Token)
	}
	account, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return c.ChooseServer(ctx, account)
}

// ConnectDirect verifies url and token against the server's identity
// endpoint. A server that presents its plex.direct certificate on a bare
// address is retried on the address plex.tv publishes for it.
func (c *Connector) ConnectDirect(ctx context.Context, baseURL, token string) (*Server, error) {
	headers, err := c.clientHeaders()
	if err != nil {
		return nil, err
	}
	server := newServer(baseURL, token, "", headers, c.client, c.logger)
	_, err = server.Identity(ctx)
	if err == nil {
		c.logger.Debug("connected to plex server", logging.String("url", server.URL()))
		return server, nil
	}
	if errors.Is(err, services.ErrAuthentication) {
		return nil, err
	}
	if needsPlexDirectFallback(err) {
		resolved, resolveErr := resolveDirectURL(ctx, c.account(headers), token)
		if resolveErr == nil {
			c.logger.Info("retrying plex server on plex.direct address", logging.String("url", resolved))
			server = newServer(resolved, token, "", headers, c.client, c.logger)
			if _, retryErr := server.Identity(ctx); retryErr == nil {
				return server, nil
			}
		}
	}
	return nil, services.Wrap(services.ErrDiscovery, "plex", "connect", server.URL(), err)
}

// Authenticate signs in to plex.tv with prompted credentials. Requests
// rejected as malformed are retried up to the configured attempts; wrong
// credentials fail at once.
func (c *Connector) Authenticate(ctx context.Context) (*Account, error) {
	if c.prompter == nil {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "sign in",
			"no plex url/token configured and no terminal to prompt for credentials", nil)
	}
	headers, err := c.clientHeaders()
	if err != nil {
		return nil, err
	}
	client := c.account(headers)

	var account *Account
	err = retry.Do(
		func() error {
			username, password, err := c.prompter.Credentials()
			if err != nil {
				return err
			}
			signedIn, err := client.SignIn(ctx, username, password)
			if err != nil {
				return err
			}
			account = signedIn
			return nil
		},
		retry.Attempts(uint(c.opts.MaxAttempts)),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrBadRequest) }),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("plex sign-in rejected, retrying",
				logging.Int("attempt", int(n)+1),
				logging.Error(err),
			)
		}),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrAuthentication, "plex", "sign in", "", err)
	}
	c.logger.Info("signed in to plex.tv", logging.String("user", account.Username))
	return account, nil
}

// ChooseServer lists the account's servers, lets the operator pick one and
// connects to its best reachable address.
func (c *Connector) ChooseServer(ctx context.Context, account *Account) (*Server, error) {
	headers, err := c.clientHeaders()
	if err != nil {
		return nil, err
	}
	resources, err := c.account(headers).Resources(ctx, account.AuthToken)
	if err != nil {
		return nil, services.Wrap(services.ErrDiscovery, "plex", "list servers", "", err)
	}
	servers := filterServers(resources)
	if len(servers) == 0 {
		return nil, services.Wrap(services.ErrDiscovery, "", "", "No available servers.", nil)
	}

	labels := make([]string, len(servers))
	for i, res := range servers {
		labels[i] = res.Name
	}
	index, err := c.choose("Select server index", labels)
	if err != nil {
		return nil, err
	}
	chosen := servers[index]

	token := strings.TrimSpace(chosen.AccessToken)
	if token == "" {
		token = account.AuthToken
	}
	var lastErr error
	for _, uri := range rankConnections(chosen.Connections) {
		server := newServer(uri, token, chosen.Name, headers, c.client, c.logger)
		if _, err := server.Identity(ctx); err != nil {
			c.logger.Debug("plex connection failed", logging.String("url", uri), logging.Error(err))
			lastErr = err
			continue
		}
		c.logger.Info("connected to plex server",
			logging.String("server", chosen.Name),
			logging.String("url", uri),
		)
		return server, nil
	}
	return nil, services.Wrap(services.ErrDiscovery, "plex", "connect",
		fmt.Sprintf("unable to reach server %q", chosen.Name), lastErr)
}

// ChooseSection finds the section titled name, ignoring case. When name is
// empty or unknown the operator picks among movie and show sections.
func (c *Connector) ChooseSection(ctx context.Context, server *Server, name string) (Section, error) {
	sections, err := server.Sections(ctx)
	if err != nil {
		return Section{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		for _, section := range sections {
			if !textutil.EqualFold(section.Title, name) {
				continue
			}
			if !section.Flattenable() {
				return Section{}, services.Wrap(services.ErrDiscovery, "plex", "section",
					fmt.Sprintf("library %q has unsupported type %q", section.Title, section.Type), nil)
			}
			return section, nil
		}
		c.logger.Warn("library not found, choosing interactively", logging.String("library", name))
	}

	candidates := make([]Section, 0, len(sections))
	for _, section := range sections {
		if section.Flattenable() {
			candidates = append(candidates, section)
		}
	}
	if len(candidates) == 0 {
		return Section{}, services.Wrap(services.ErrDiscovery, "", "", "No available sections.", nil)
	}
	labels := make([]string, len(candidates))
	for i, section := range candidates {
		labels[i] = section.Title
	}
	index, err := c.choose("Select section index", labels)
	if err != nil {
		return Section{}, err
	}
	return candidates[index], nil
}

func (c *Connector) choose(message string, labels []string) (int, error) {
	if len(labels) == 1 {
		return 0, nil
	}
	if c.prompter == nil {
		return -1, services.Wrap(services.ErrConfiguration, "plex", "choose",
			message+": several choices and no terminal to ask", nil)
	}
	index, err := c.prompter.Choose(message, labels)
	if err != nil {
		return -1, services.Wrap(services.ErrConfiguration, "plex", "choose", message, err)
	}
	if index < 0 || index >= len(labels) {
		return -1, services.Wrap(services.ErrConfiguration, "plex", "choose",
			fmt.Sprintf("%s: index %d out of range", message, index), nil)
	}
	return index, nil
}

func (c *Connector) account(headers clientHeaders) *accountClient {
	return newAccountClient(c.accountURL, headers, c.client)
}

func (c *Connector) clientHeaders() (clientHeaders, error) {
	if c.headers != nil {
		return *c.headers, nil
	}
	id, err := c.identity.ClientIdentifier()
	if err != nil {
		return clientHeaders{}, services.Wrap(services.ErrConfiguration, "plex", "client identifier", "", err)
	}
	c.headers = &clientHeaders{product: c.opts.ClientName, clientIdentifier: id}
	return *c.headers, nil
}
