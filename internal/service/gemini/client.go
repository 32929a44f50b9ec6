package gemini

import (
	"context"
	"net/http"
	"sync"

	"google.golang.org/genai"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
)

// KeySource resolves the API key for each call; credential.Gate satisfies it.
type KeySource interface {
	Key(ctx context.Context) (string, error)
}

// ClientFactory hands out genai clients bound to the key currently in
// effect. The key can change at runtime (the user reconnects), so clients
// are cached per key rather than built once.
type ClientFactory struct {
	httpClient *http.Client
	baseURL    string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewClientFactory(httpClient *http.Client, baseURL string) *ClientFactory {
	return &ClientFactory{
		httpClient: httpClient,
		baseURL:    baseURL,
		clients:    make(map[string]*genai.Client),
	}
}

func (f *ClientFactory) Client(ctx context.Context, keys KeySource) (*genai.Client, error) {
	key, err := keys.Key(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[key]; ok {
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: f.httpClient,
	}
	if f.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: f.baseURL}
	}

	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create genai client")
	}
	// keep the cache small; a new key usually replaces the old one
	if len(f.clients) >= 8 {
		f.clients = make(map[string]*genai.Client)
	}
	f.clients[key] = c
	return c, nil
}
