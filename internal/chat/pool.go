package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/auth"
)

// maxPooledClients bounds how many per-key clients are cached at once.
const maxPooledClients = 64

// Pool hands out one Client per API key. A request may carry its own key;
// otherwise the process default from auth.ResolveAPIKey is used.
type Pool struct {
	opts Options

	mu      sync.Mutex
	clients map[string]*Client

	resolve func(override string) (string, error)
	create  func(ctx context.Context, apiKey string, opts Options) (*Client, error)
}

// NewPool returns an empty pool building clients with opts.
func NewPool(opts Options) *Pool {
	return &Pool{
		opts:    opts,
		clients: make(map[string]*Client),
		resolve: auth.ResolveAPIKey,
		create:  NewClient,
	}
}

// Client returns the client for override, or for the default key when
// override is blank.
func (p *Pool) Client(ctx context.Context, override string) (*Client, error) {
	key, err := p.resolve(override)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(key))
	id := hex.EncodeToString(sum[:])

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[id]; ok {
		return c, nil
	}
	c, err := p.create(ctx, key, p.opts)
	if err != nil {
		return nil, err
	}
	if len(p.clients) >= maxPooledClients {
		log.Debug().Int("clients", len(p.clients)).Msg("Client pool full, resetting")
		clear(p.clients)
	}
	p.clients[id] = c
	return c, nil
}
