package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockberries/minichain/app"
	"github.com/blockberries/minichain/types"
)

func registerRoutes(r gin.IRouter, h *handlers) {
	v1 := r.Group("/v1")
	v1.GET("/status", h.status)
	v1.GET("/state", h.state)
	v1.GET("/balances/:account", h.balance)
	v1.GET("/nonces/:account", h.nonce)
	v1.GET("/claims/:content", h.claim)
}

type handlers struct {
	chainID func() string
	q       Querier
}

// query runs req and writes an error response if it did not succeed.
func (h *handlers) query(c *gin.Context, req types.StateQuery) (types.StateQueryResult, bool) {
	res, err := h.q.Query(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return res, false
	}
	switch res.Code {
	case app.QueryOK:
		return res, true
	case app.QueryNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": res.Info})
	case app.QueryBadRequest:
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Info})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Info})
	}
	return res, false
}

func (h *handlers) queryUint(c *gin.Context, path types.QueryPath, key string) (uint64, uint64, bool) {
	res, ok := h.query(c, types.StateQuery{Path: path, Data: []byte(key)})
	if !ok {
		return 0, 0, false
	}
	v, err := app.DecodeUint64(res.Value)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return 0, 0, false
	}
	return v, res.Height, true
}

func (h *handlers) status(c *gin.Context) {
	n, height, ok := h.queryUint(c, app.PathBlockNumber, "")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chain_id":     h.chainID(),
		"block_number": n,
		"height":       height,
	})
}

func (h *handlers) state(c *gin.Context) {
	res, ok := h.query(c, types.StateQuery{Path: app.PathState})
	if !ok {
		return
	}
	snap, err := app.DecodeSnapshot(res.Value)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) balance(c *gin.Context) {
	account := c.Param("account")
	v, height, ok := h.queryUint(c, app.PathBalance, account)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": v, "height": height})
}

func (h *handlers) nonce(c *gin.Context) {
	account := c.Param("account")
	v, height, ok := h.queryUint(c, app.PathNonce, account)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "nonce": v, "height": height})
}

func (h *handlers) claim(c *gin.Context) {
	content := c.Param("content")
	res, ok := h.query(c, types.StateQuery{Path: app.PathClaim, Data: []byte(content)})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content, "owner": string(res.Value), "height": res.Height})
}
