package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/store"
)

// Deps is everything the HTTP layer needs. The lifecycle service owns all
// order-state mutation; the inventory store also serves the catalog reads.
type Deps struct {
	Lifecycle *service.Lifecycle
	Inventory *store.InventoryStore
	Redis     *rd.Client

	BuyRateLimit  int
	BuyRateWindow time.Duration
}

// Setup registers all HTTP routes.
func Setup(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	api := r.Group("/api", middleware.RequireIdentity())

	// Catalog
	api.GET("/items", listItems(d.Inventory))
	api.GET("/items-for-sale", listItemsForSale(d.Inventory))
	api.POST("/items", createItem(d.Inventory))

	// Order lifecycle
	buy := []gin.HandlerFunc{placeOrder(d.Lifecycle)}
	if d.Redis != nil {
		buy = append([]gin.HandlerFunc{middleware.RedisRateLimit(d.Redis, d.BuyRateLimit, d.BuyRateWindow)}, buy...)
	}
	api.POST("/buy-item", buy...)
	api.GET("/my-orders", myOrders(d.Lifecycle))
	api.GET("/decisions", openDecisions(d.Lifecycle))
	api.POST("/orders/:id/accept", resolveOrder(d.Lifecycle, service.DecisionAccept))
	api.POST("/orders/:id/decline", resolveOrder(d.Lifecycle, service.DecisionDecline))
	api.POST("/orders/:id/received", markReceived(d.Lifecycle))
}

// httpStatus maps a domain error kind to the response status.
func httpStatus(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func fail(c *gin.Context, err error) {
	status := httpStatus(apperr.KindOf(err))
	c.JSON(status, gin.H{"code": status, "msg": apperr.Message(err)})
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid order id"})
		return 0, false
	}
	return uint(id), true
}

func listItems(inv *store.InventoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := inv.List(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": items})
	}
}

func listItemsForSale(inv *store.InventoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := inv.ListForSale(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": items})
	}
}

func createItem(inv *store.InventoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name" binding:"required"`
			Quantity int    `json:"quantity" binding:"required,min=1"`
			Price    int64  `json:"price" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		item, err := inv.CreateItem(c.Request.Context(), middleware.Principal(c), req.Name, req.Quantity, req.Price)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": item})
	}
}

// placeOrder is the buy entry point: the authenticated customer purchases a
// quantity of one item, the seller gets a pending decision to act on.
func placeOrder(svc *service.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ItemID   uint `json:"item_id" binding:"required,min=1"`
			Quantity int  `json:"quantity" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		order, err := svc.Place(c.Request.Context(), middleware.Principal(c), req.ItemID, req.Quantity)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"code": 0,
			"msg":  "order placed and employee notified",
			"data": order,
		})
	}
}

func myOrders(svc *service.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := svc.Orders(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": views})
	}
}

func openDecisions(svc *service.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.OpenDecisions(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

func resolveOrder(svc *service.Lifecycle, decision service.Decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		order, err := svc.Resolve(c.Request.Context(), orderID, middleware.Principal(c), decision)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"code": 0,
			"msg":  "order " + string(order.Status),
			"data": order,
		})
	}
}

func markReceived(svc *service.Lifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}
		order, err := svc.MarkReceived(c.Request.Context(), orderID, middleware.Principal(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "order received", "data": order})
	}
}
