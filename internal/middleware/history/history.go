// Package history keeps the router state of the store in sync with the pages
// being served.
package history

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tenemo/sealed-vote/internal/flux"
	"github.com/tenemo/sealed-vote/internal/store"
)

// Dispatcher receives the navigation actions
type Dispatcher interface {
	Dispatch(action flux.Action)
}

// Resolver picks the store of a request
type Resolver func(c *gin.Context) Dispatcher

// Sync dispatches store.LocationChanged to the request's store before the
// page handler runs. Only page views are navigations; form posts redirect to
// one.
func Sync(resolve Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			if d := resolve(c); d != nil {
				d.Dispatch(store.LocationChanged(c.Request.Method, c.Request.URL.RequestURI()))
			}
		}
		c.Next()
	}
}
