package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// ルーティングに必要なhandler一式
type Deps struct {
	UserRepo repository.UserRepository

	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Category *handler.CategoryHandler
	Cart     *handler.CartHandler
	Wishlist *handler.WishlistHandler
	Order    *handler.OrderHandler
	Review   *handler.ReviewHandler

	AdminProduct   *handler.AdminProductHandler
	AdminCategory  *handler.AdminCategoryHandler
	AdminOrder     *handler.AdminOrderHandler
	AdminCustomer  *handler.AdminCustomerHandler
	AdminAnalytics *handler.AdminAnalyticsHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, d Deps) {
	//公開
	d.Product.RegisterRoutes(e)
	d.Category.RegisterRoutes(e)

	//認証つき
	d.Auth.RegisterRoutes(e, cfg, d.UserRepo)
	d.Cart.RegisterRoutes(e, cfg, d.UserRepo)
	d.Wishlist.RegisterRoutes(e, cfg, d.UserRepo)
	d.Order.RegisterRoutes(e, cfg, d.UserRepo)
	d.Review.RegisterRoutes(e, cfg, d.UserRepo)

	//管理者
	d.AdminProduct.RegisterRoutes(e, cfg, d.UserRepo)
	d.AdminCategory.RegisterRoutes(e, cfg, d.UserRepo)
	d.AdminOrder.RegisterRoutes(e, cfg, d.UserRepo)
	d.AdminCustomer.RegisterRoutes(e, cfg, d.UserRepo)
	d.AdminAnalytics.RegisterRoutes(e, cfg, d.UserRepo)
}
