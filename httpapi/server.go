// Package httpapi serves a read-only JSON view of committed chain
// state over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockberries/minichain/types"
)

// Querier reads committed state. Any minichain.Connection satisfies
// it.
type Querier interface {
	Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error)
}

// APIConfig configures the read API. ChainID is asked on every status
// request, so it reports the chain ID set by the genesis handshake.
type APIConfig struct {
	APIEndpoint string
	ChainID     func() string
}

// NewRouter builds the gin engine serving the read API.
func NewRouter(cfg APIConfig, q Querier) *gin.Engine {
	r := gin.Default()
	chainID := cfg.ChainID
	if chainID == nil {
		chainID = func() string { return "" }
	}
	registerRoutes(r, &handlers{chainID: chainID, q: q})
	return r
}

// Serve runs the read API until the listener fails or ctx is done.
func Serve(ctx context.Context, cfg APIConfig, q Querier) error {
	srv := &http.Server{
		Addr:    cfg.APIEndpoint,
		Handler: NewRouter(cfg, q),
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
