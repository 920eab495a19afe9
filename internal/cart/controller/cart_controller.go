package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/cart/store"
	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/i18n"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
	"github.com/moaz267/furniture/internal/session"
)

type ProductLookup interface {
	CartSnapshot(ctx context.Context, productID string) (domain.CartItem, error)
}

type Carts interface {
	Get(session string) (*store.Store, error)
}

type Validator interface {
	Struct(s any) error
}

type CartController struct {
	carts    Carts
	products ProductLookup
	validate Validator
	logger   *zap.Logger
}

func NewCartController(carts Carts, products ProductLookup, validate Validator, logger *zap.Logger) *CartController {
	return &CartController{
		carts:    carts,
		products: products,
		validate: validate,
		logger:   logger,
	}
}

func (c *CartController) Routes(r chi.Router) {
	r.Get("/", c.GetCart)
	r.Delete("/", c.ClearCart)
	r.Post("/open", c.SetOpen)
	r.Post("/items", c.AddItem)
	r.Patch("/items/{productId}", c.UpdateItem)
	r.Delete("/items/{productId}", c.RemoveItem)
}

func (c *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c.withCart(w, r, func(cart *store.Store, traceID string, logger *zap.Logger) {
		c.writeCart(w, r, http.StatusOK, cart, logger)
	})
}

func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c.withCart(w, r, func(cart *store.Store, traceID string, logger *zap.Logger) {
		var req dto.AddCartItemRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}
		if req.ProductID == "" {
			httpjson.WriteValidationError(w, traceID, "productId is required", logger, apperrors.ValidationDetail{
				Field:   "productId",
				Message: "productId is required",
			})
			return
		}

		item, err := c.products.CartSnapshot(r.Context(), req.ProductID)
		if err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}

		cart.Add(item)
		logger.Debug("added to cart", zap.String("productId", item.ID))
		c.writeCart(w, r, http.StatusOK, cart, logger)
	})
}

func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c.withCart(w, r, func(cart *store.Store, traceID string, logger *zap.Logger) {
		var req dto.UpdateCartItemRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}
		if req.Quantity == nil {
			httpjson.WriteValidationError(w, traceID, "quantity is required", logger, apperrors.ValidationDetail{
				Field:   "quantity",
				Message: "quantity is required",
			})
			return
		}
		if err := c.validate.Struct(req); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}

		cart.UpdateQuantity(chi.URLParam(r, "productId"), *req.Quantity)
		c.writeCart(w, r, http.StatusOK, cart, logger)
	})
}

func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c.withCart(w, r, func(cart *store.Store, traceID string, logger *zap.Logger) {
		cart.Remove(chi.URLParam(r, "productId"))
		c.writeCart(w, r, http.StatusOK, cart, logger)
	})
}

func (c *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c.withCart(w, r, func(cart *store.Store, traceID string, logger *zap.Logger) {
		cart.Clear()
		c.writeCart(w, r, http.StatusOK, cart, logger)
	})
}

func (c *CartController) SetOpen(w http.ResponseWriter, r *http.Request) {
	c.withCart(w, r, func(cart *store.Store, traceID string, logger *zap.Logger) {
		var req dto.CartOpenRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, traceID, err, logger)
			return
		}
		cart.SetOpen(req.Open)
		c.writeCart(w, r, http.StatusOK, cart, logger)
	})
}

func (c *CartController) withCart(w http.ResponseWriter, r *http.Request, fn func(cart *store.Store, traceID string, logger *zap.Logger)) {
	traceID, logger := httpjson.Trace(c.logger, r)

	sessionID, ok := session.FromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, traceID, apperrors.NewInternalError("missing shopper session", nil), logger)
		return
	}
	cart, err := c.carts.Get(sessionID)
	if err != nil {
		httpjson.WriteError(w, traceID, apperrors.NewUnavailableError("cart is unavailable", err), logger)
		return
	}

	fn(cart, traceID, logger.With(zap.String("session", sessionID)))
}

func (c *CartController) writeCart(w http.ResponseWriter, r *http.Request, status int, cart *store.Store, logger *zap.Logger) {
	httpjson.Write(w, status, RenderCart(cart, i18n.FromContext(r.Context())), logger)
}

// RenderCart maps the cart to its JSON shape with names in lang.
func RenderCart(cart *store.Store, lang domain.Language) dto.CartResponse {
	items := cart.Items()
	out := dto.CartResponse{
		Items:     make([]dto.CartItemDTO, 0, len(items)),
		ItemCount: cart.ItemCount(),
		Total:     cart.Total().StringFixed(2),
		IsOpen:    cart.IsOpen(),
	}
	for _, item := range items {
		out.Items = append(out.Items, dto.CartItemDTO{
			ID:          item.ID,
			Name:        item.Name,
			NameAr:      item.NameAr,
			DisplayName: lang.Pick(item.Name, item.NameAr),
			Price:       item.Price.StringFixed(2),
			Image:       item.Image,
			Category:    lang.Pick(item.Category, item.CategoryAr),
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}
	return out
}
