package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quickbite/internal/checkout"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/validation"
	"quickbite/internal/models"
	"quickbite/internal/search"
)

func (s *Server) listMenu(c *gin.Context) {
	items, err := s.deps.Menu.ListMenuItems(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) searchMenu(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		s.abortWithError(c, apperrors.NewInvalidRequestError("q is required"))
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := s.deps.Search.Search(c.Request.Context(), q, size)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "hits": hits})
}

func (s *Server) getCart(c *gin.Context) {
	lines, err := s.deps.Carts.ForSession(currentSession(c).ID).Lines(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines, "total": models.CartTotal(lines)})
}

func (s *Server) clearCart(c *gin.Context) {
	if err := s.deps.Carts.ForSession(currentSession(c).ID).ClearCart(c.Request.Context()); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type checkoutRequest struct {
	DeliveryNote string `json:"deliveryNote"`
}

func (s *Server) postCheckout(c *gin.Context) {
	var req checkoutRequest
	if c.Request.ContentLength != 0 {
		if !s.bindValidated(c, validation.SchemaCheckout, &req) {
			return
		}
	}
	sess := currentSession(c)

	order, err := s.deps.Checkout.Checkout(c.Request.Context(), checkout.Request{
		UserIdentifier: sess.UserIdentifier,
		Role:           sess.Role,
		DeliveryNote:   req.DeliveryNote,
	}, s.deps.Carts.ForSession(sess.ID))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) listOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit < 1 || limit > 50 {
		limit = 5
	}
	orders, err := s.deps.Orders.FindRecentOrders(c.Request.Context(), currentSession(c).UserIdentifier, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder hides other users' orders behind 404 unless the caller is an
// admin.
func (s *Server) getOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.abortWithError(c, apperrors.NewInvalidRequestError("order id must be a positive integer"))
		return
	}
	sess := currentSession(c)

	order, err := s.deps.Orders.FindOrderByID(c.Request.Context(), id)
	if err == nil && sess.Role != models.RoleAdmin && order.UserIdentifier != sess.UserIdentifier {
		err = models.ErrOrderNotFound
	}
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
